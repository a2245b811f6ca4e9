package provider

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"
	jwemail "github.com/jordan-wright/email"
	"github.com/knadh/smtppool"

	"github.com/dsvi/school-portal-backend/internal/config"
	appErrors "github.com/dsvi/school-portal-backend/internal/errors"
	"github.com/dsvi/school-portal-backend/internal/model"
)

// SMTPTransport delivers through a relay. Configured servers get a pooled
// connection each; if no pool could be established the transport falls back
// to a one-shot send against the first server.
type SMTPTransport struct {
	servers config.SMTPServerList
	pools   []*smtppool.Pool
	counter int
}

func NewSMTPTransport(servers config.SMTPServerList) *SMTPTransport {
	t := &SMTPTransport{servers: servers}
	for _, server := range servers.Servers {
		pool, err := connectToPool(server)
		if err != nil {
			log.Println("⚠️ failed to set up SMTP connection pool for", addr(server), ":", err)
			continue
		}
		t.pools = append(t.pools, pool)
	}
	return t
}

func (t *SMTPTransport) Name() string { return model.ProviderSMTP }

func (t *SMTPTransport) Send(ctx context.Context, email *Email, cfg *model.DeliveryConfig) (*Outcome, error) {
	if len(t.servers.Servers) == 0 {
		return nil, appErrors.NewConfiguration("smtp_servers")
	}

	var to []string
	for _, r := range email.Recipients {
		if r.Email == "" {
			continue
		}
		to = append(to, r.Email)
	}
	if len(to) == 0 {
		return nil, appErrors.NewProviderTransport(t.Name(), 0, false,
			fmt.Errorf("no addressable recipients for SMTP delivery"))
	}

	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	}

	var err error
	if len(t.pools) > 0 {
		t.counter++
		pool := t.pools[t.counter%len(t.pools)]
		msg := smtppool.Email{
			From:    from,
			To:      to,
			Subject: email.Subject,
			HTML:    []byte(email.Body),
		}
		if cfg.ReplyTo != "" {
			msg.ReplyTo = []string{cfg.ReplyTo}
		}
		err = pool.Send(msg)
	} else {
		err = t.sendOneShot(from, to, email, cfg)
	}

	if err != nil {
		return nil, appErrors.NewProviderTransport(t.Name(), 0, true, err)
	}

	return &Outcome{
		Provider:   t.Name(),
		DeliveryID: uuid.NewString(),
	}, nil
}

// sendOneShot opens a fresh connection for a single message, used when the
// pool could not be established at startup.
func (t *SMTPTransport) sendOneShot(from string, to []string, email *Email, cfg *model.DeliveryConfig) error {
	server := t.servers.Servers[0]

	e := jwemail.NewEmail()
	e.From = from
	e.To = to
	e.Subject = email.Subject
	e.HTML = []byte(email.Body)
	if cfg.ReplyTo != "" {
		e.ReplyTo = []string{cfg.ReplyTo}
	}

	return e.Send(addr(server), authFor(server))
}

func (t *SMTPTransport) TestConnection(ctx context.Context, cfg *model.DeliveryConfig) (*ConnectionResult, error) {
	if len(t.servers.Servers) == 0 {
		return nil, appErrors.NewConfiguration("smtp_servers")
	}

	server := t.servers.Servers[0]
	conn, err := net.DialTimeout("tcp", addr(server), 5*time.Second)
	if err != nil {
		return nil, appErrors.NewProviderTransport(t.Name(), 0, true, err)
	}
	conn.Close()

	return &ConnectionResult{Provider: t.Name(), OK: true, Detail: "relay reachable: " + addr(server)}, nil
}

func connectToPool(server config.SMTPServer) (*smtppool.Pool, error) {
	return smtppool.New(smtppool.Opt{
		Host:            server.Host,
		Port:            server.Port,
		MaxConns:        server.Connections,
		IdleTimeout:     time.Duration(server.SendTimeout) * time.Second,
		PoolWaitTimeout: time.Duration(server.SendTimeout) * time.Second,
		TLSConfig: &tls.Config{
			InsecureSkipVerify: server.InsecureSkipVerify,
			ServerName:         server.Host,
		},
		Auth: authFor(server),
	})
}

func authFor(server config.SMTPServer) smtp.Auth {
	if server.AuthData.Username == "" && server.AuthData.Password == "" {
		return nil
	}
	return smtp.PlainAuth("", server.AuthData.Username, server.AuthData.Password, server.Host)
}

func addr(server config.SMTPServer) string {
	return server.Host + ":" + strconv.Itoa(server.Port)
}
