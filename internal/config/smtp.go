package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

// SMTPServerList is the relay configuration read from a YAML file.
type SMTPServerList struct {
	Servers []SMTPServer `yaml:"servers"`
}

type SMTPServer struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Connections        int    `yaml:"connections"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
	AuthData           struct {
		Username string `yaml:"user"`
		Password string `yaml:"password"`
	} `yaml:"auth"`
	SendTimeout int `yaml:"sendTimeout"`
}

func (sl *SMTPServerList) ReadFromFile(fname string) error {
	yamlFile, err := os.ReadFile(fname)
	if err != nil {
		log.Println("⚠️ could not read SMTP server config file:", fname, err)
		return err
	}
	return yaml.UnmarshalStrict(yamlFile, sl)
}
