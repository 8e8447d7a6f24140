package infra

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"contact-gateway/contact/domain"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Modos de TLS do SMTPChannel.
const (
	TLSModeStartTLS = "starttls"
	TLSModeImplicit = "tls"
	TLSModeNone     = "none"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// TLSMode vazio vira "tls" na porta 465 e "starttls" nas demais.
	TLSMode string
	// HeloName é o nome no EHLO; vazio usa o hostname da máquina.
	// Não vale no modo starttls (ver handshake).
	HeloName string
	// TLSConfig opcional (ex: RootCAs próprios). ServerName é preenchido com Host.
	TLSConfig *tls.Config
}

func (c SMTPConfig) mode() string {
	if c.TLSMode != "" {
		return c.TLSMode
	}
	if c.Port == 465 {
		return TLSModeImplicit
	}
	return TLSModeStartTLS
}

func (c SMTPConfig) tlsConfig() *tls.Config {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.TLSConfig != nil {
		cfg = c.TLSConfig.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = c.Host
	}
	return cfg
}

// SMTPChannel entrega por um relay SMTP, uma conexão por mensagem.
type SMTPChannel struct {
	cfg SMTPConfig
	now func() time.Time
}

func NewSMTPChannel(cfg SMTPConfig) (*SMTPChannel, error) {
	switch cfg.mode() {
	case TLSModeStartTLS, TLSModeImplicit, TLSModeNone:
	default:
		return nil, fmt.Errorf("smtp: unknown tls mode %q", cfg.TLSMode)
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPChannel{cfg: cfg, now: time.Now}, nil
}

func (c *SMTPChannel) Send(ctx context.Context, msg domain.MailMessage) error {
	if c.cfg.Host == "" {
		return fmt.Errorf("%w: smtp host missing", domain.ErrMailUnconfigured)
	}

	data, err := buildMIME(msg, c.now())
	if err != nil {
		return fmt.Errorf("smtp: build message: %w", err)
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("smtp: connect %s:%d: %w", c.cfg.Host, c.cfg.Port, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	// cancelamento sem deadline também derruba a conexão
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	cl, err := c.handshake(conn)
	if err != nil {
		return err
	}
	defer cl.Close()

	if c.cfg.Username != "" {
		if err := cl.Auth(sasl.NewPlainClient("", c.cfg.Username, c.cfg.Password)); err != nil {
			return fmt.Errorf("smtp: AUTH: %w", err)
		}
	}

	if err := cl.Mail(msg.FromEmail, nil); err != nil {
		return fmt.Errorf("smtp: MAIL FROM: %w", err)
	}
	if err := cl.Rcpt(msg.To, nil); err != nil {
		return fmt.Errorf("smtp: RCPT TO: %w", err)
	}

	wc, err := cl.Data()
	if err != nil {
		return fmt.Errorf("smtp: DATA: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("smtp: write data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("smtp: close data: %w", err)
	}

	// a mensagem já foi aceita; erro no QUIT não muda o resultado
	_ = cl.Quit()
	return nil
}

// handshake faz o EHLO e, no modo starttls, a troca para TLS. Nesse modo o
// EHLO é feito pelo próprio go-smtp como "localhost" e HeloName é ignorado.
func (c *SMTPChannel) handshake(conn net.Conn) (*smtp.Client, error) {
	if c.cfg.mode() == TLSModeStartTLS {
		cl, err := smtp.NewClientStartTLS(conn, c.cfg.tlsConfig())
		if err != nil {
			return nil, fmt.Errorf("smtp: STARTTLS: %w", err)
		}
		// o handshake TLS só acontece no próximo comando; NOOP força aqui
		if err := cl.Noop(); err != nil {
			_ = cl.Close()
			return nil, fmt.Errorf("smtp: STARTTLS: %w", err)
		}
		return cl, nil
	}

	cl := smtp.NewClient(conn)
	if err := cl.Hello(c.heloName()); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("smtp: EHLO: %w", err)
	}
	return cl, nil
}

func (c *SMTPChannel) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	if c.cfg.mode() == TLSModeImplicit {
		d := &tls.Dialer{Config: c.cfg.tlsConfig()}
		return d.DialContext(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

func (c *SMTPChannel) heloName() string {
	if c.cfg.HeloName != "" {
		return c.cfg.HeloName
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "localhost"
}
