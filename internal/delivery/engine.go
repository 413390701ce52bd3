package delivery

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"

	"github.com/ignite/outreach/internal/config"
)

// Credentials is the submission account a batch is sent from. The app
// password comes from the stored settings, not from config.
type Credentials struct {
	Email       string
	AppPassword string
}

// Engine delivers rendered messages over authenticated SMTP. The submission
// host is chosen per sender domain.
type Engine struct {
	cfg      config.SMTPConfig
	throttle *Throttle // nil disables rate limiting
}

func NewEngine(cfg config.SMTPConfig, throttle *Throttle) *Engine {
	return &Engine{cfg: cfg, throttle: throttle}
}

// Verify performs the connect/STARTTLS/AUTH handshake and disconnects.
// Called once before a batch send so credential problems surface before any
// message goes out.
func (e *Engine) Verify(ctx context.Context, creds Credentials) error {
	client, err := e.connect(ctx, creds)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Quit()
}

// Send delivers one message. It reports success or failure and never
// panics past this boundary; a delivery failure marks the recipient failed
// and the batch moves on.
func (e *Engine) Send(ctx context.Context, creds Credentials, msg *Message) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[delivery] panic sending to %s: %v", msg.To, r)
			ok = false
		}
	}()

	if e.throttle != nil {
		if err := e.throttle.Wait(ctx, creds.Email); err != nil {
			log.Printf("[delivery] throttle for %s: %v", creds.Email, err)
			return false
		}
	}

	client, err := e.connect(ctx, creds)
	if err != nil {
		log.Printf("[delivery] connect for %s: %v", msg.To, err)
		return false
	}
	defer client.Close()

	if err := client.Mail(creds.Email); err != nil {
		log.Printf("[delivery] MAIL FROM %s: %v", creds.Email, err)
		return false
	}
	for _, rcpt := range msg.Recipients() {
		if err := client.Rcpt(rcpt); err != nil {
			log.Printf("[delivery] RCPT TO %s: %v", rcpt, err)
			return false
		}
	}

	w, err := client.Data()
	if err != nil {
		log.Printf("[delivery] DATA for %s: %v", msg.To, err)
		return false
	}
	if _, err := w.Write(buildMIME(msg)); err != nil {
		log.Printf("[delivery] write for %s: %v", msg.To, err)
		return false
	}
	if err := w.Close(); err != nil {
		log.Printf("[delivery] DATA close for %s: %v", msg.To, err)
		return false
	}
	if err := client.Quit(); err != nil {
		log.Printf("[delivery] QUIT after %s: %v", msg.To, err)
	}

	log.Printf("[delivery] sent to %s via %s", msg.To, resolveProfile(e.cfg, creds.Email).Host)
	return true
}

// connect dials the resolved submission host, upgrades to TLS, and
// authenticates.
func (e *Engine) connect(ctx context.Context, creds Credentials) (*smtp.Client, error) {
	profile := resolveProfile(e.cfg, creds.Email)
	addr := fmt.Sprintf("%s:%d", profile.Host, profile.Port)

	dialer := &net.Dialer{Timeout: e.cfg.Timeout()}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("SMTP connect to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, profile.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTP client: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: profile.Host}); err != nil {
			client.Close()
			return nil, fmt.Errorf("STARTTLS: %w", err)
		}
	}

	if err := client.Auth(pickAuth(client, profile.Host, creds)); err != nil {
		client.Close()
		return nil, fmt.Errorf("AUTH for %s: %w", creds.Email, err)
	}
	return client, nil
}

// pickAuth selects the SASL mechanism the server advertises. Office365
// only offers LOGIN; Gmail offers PLAIN.
func pickAuth(client *smtp.Client, host string, creds Credentials) smtp.Auth {
	if ok, mechs := client.Extension("AUTH"); ok && !strings.Contains(mechs, "PLAIN") {
		return &loginAuth{user: creds.Email, pass: creds.AppPassword}
	}
	return smtp.PlainAuth("", creds.Email, creds.AppPassword, host)
}

// loginAuth implements the legacy AUTH LOGIN challenge-response exchange,
// which stdlib does not ship.
type loginAuth struct {
	user, pass string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(string(fromServer))) {
	case "username:":
		return []byte(a.user), nil
	case "password:":
		return []byte(a.pass), nil
	default:
		return nil, fmt.Errorf("unexpected LOGIN challenge %q", fromServer)
	}
}
