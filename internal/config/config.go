package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Environment selects the delivery fallback strategy once at startup.
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvDevelopment Environment = "development"
)

type Config struct {
	Environment    Environment
	Port           string
	GatewayURL     string
	GatewayAPIKey  string
	AMQPURL        string
	SMTPConfigFile string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := Config{
		Environment:    ParseEnvironment(os.Getenv("APP_ENV")),
		Port:           os.Getenv("PORT"),
		GatewayURL:     os.Getenv("MESSAGING_GATEWAY_URL"),
		GatewayAPIKey:  os.Getenv("MESSAGING_GATEWAY_API_KEY"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		SMTPConfigFile: os.Getenv("SMTP_CONFIG_FILE"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	return cfg
}

// ParseEnvironment maps APP_ENV onto an Environment. Only the exact value
// "production" selects production; any other value, including a misspelling,
// falls back to development and its simulated-transport fallback.
func ParseEnvironment(s string) Environment {
	if s == string(EnvProduction) {
		return EnvProduction
	}
	return EnvDevelopment
}
