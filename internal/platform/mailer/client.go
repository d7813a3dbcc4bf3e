// Package mailer delivers outbound notification email through the SendGrid
// HTTP API. Delivery is best-effort: callers log failures and move on.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/virtuos/siddata-backend/internal/logger"
	"github.com/virtuos/siddata-backend/internal/utils"
)

type Client interface {
	Send(ctx context.Context, req SendEmailRequest) error
}

type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type SendEmailRequest struct {
	To      []EmailAddress
	Subject string
	Text    string
}

type Config struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

func ConfigFromEnv(log *logger.Logger) Config {
	timeoutSec := utils.GetEnvAsInt("SENDGRID_TIMEOUT_SECONDS", 30, log)
	return Config{
		APIKey:    strings.TrimSpace(utils.GetEnv("SENDGRID_API_KEY", "", log)),
		BaseURL:   strings.TrimSpace(utils.GetEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com", log)),
		FromEmail: strings.TrimSpace(utils.GetEnv("SENDGRID_FROM_EMAIL", "noreply@siddata.de", log)),
		FromName:  strings.TrimSpace(utils.GetEnv("SENDGRID_FROM_NAME", "Siddata", log)),
		Timeout:   time.Duration(timeoutSec) * time.Second,
	}
}

// NewFromEnv returns a no-op client when no API key is configured.
func NewFromEnv(log *logger.Logger) Client {
	cfg := ConfigFromEnv(log)
	if cfg.APIKey == "" {
		log.Warn("SENDGRID_API_KEY not set, outbound mail disabled")
		return &disabledClient{log: log}
	}
	return New(log, cfg)
}

func New(log *logger.Logger, cfg Config) Client {
	return &client{
		log:        log.With("client", "MailerClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

type personalization struct {
	To []EmailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

func (c *client) Send(ctx context.Context, req SendEmailRequest) error {
	if len(req.To) == 0 {
		return fmt.Errorf("no recipients")
	}
	payload := mailSendRequest{
		Personalizations: []personalization{{To: req.To}},
		From:             EmailAddress{Email: c.cfg.FromEmail, Name: c.cfg.FromName},
		Subject:          req.Subject,
		Content:          []mailContent{{Type: "text/plain", Value: req.Text}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode mail request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.cfg.BaseURL, "/")+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("mail send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mail send: status %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

type disabledClient struct {
	log *logger.Logger
}

func (d *disabledClient) Send(ctx context.Context, req SendEmailRequest) error {
	d.log.Debug("mail disabled, dropping message", "subject", req.Subject, "recipients", len(req.To))
	return nil
}
