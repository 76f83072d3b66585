// Package dispatch delivers composed notifications to their recipients over
// a configured channel.
package dispatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Channel names accepted in NOTIFY_CHANNEL
const (
	ChannelLog      = "log"
	ChannelEmail    = "email"
	ChannelWebhook  = "webhook"
	ChannelPostgres = "postgres"
)

// ErrDispatchFailed wraps every delivery failure
var ErrDispatchFailed = errors.New("notification dispatch failed")

// Recipient is one resolved addressee
type Recipient struct {
	InstitutionID uint   `json:"institutionId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Province      string `json:"province"`
}

// Payload is a notification ready for delivery. Selector is the recipients
// value the notification was composed with.
type Payload struct {
	NotificationType string      `json:"type"`
	Selector         string      `json:"recipients"`
	Subject          string      `json:"subject"`
	Message          string      `json:"message"`
	To               []Recipient `json:"to"`
}

// Dispatcher delivers payloads over one channel
type Dispatcher interface {
	Channel() string
	Dispatch(ctx context.Context, p Payload) error
}

func failed(channel string, err error) error {
	return fmt.Errorf("%w via %s: %v", ErrDispatchFailed, channel, err)
}

// Config selects and configures a dispatcher
type Config struct {
	Channel     string
	SendGridKey string
	FromName    string
	FromEmail   string
	WebhookURL  string
	PGChannel   string
	// DB is required for the postgres channel
	DB *sql.DB
}

// New builds the dispatcher named by cfg.Channel; an empty channel logs only
func New(cfg Config, log *zap.Logger) (Dispatcher, error) {
	switch cfg.Channel {
	case "", ChannelLog:
		return NewLogDispatcher(log), nil
	case ChannelEmail:
		if cfg.SendGridKey == "" || cfg.FromEmail == "" {
			return nil, errors.New("email channel needs SENDGRID_API_KEY and NOTIFY_FROM_EMAIL")
		}
		return NewEmailDispatcher(cfg.SendGridKey, cfg.FromName, cfg.FromEmail, log), nil
	case ChannelWebhook:
		if cfg.WebhookURL == "" {
			return nil, errors.New("webhook channel needs NOTIFY_WEBHOOK_URL")
		}
		return NewWebhookDispatcher(cfg.WebhookURL, log), nil
	case ChannelPostgres:
		if cfg.DB == nil {
			return nil, errors.New("postgres channel needs a database connection")
		}
		return NewPostgresDispatcher(cfg.DB, cfg.PGChannel, log), nil
	}
	return nil, fmt.Errorf("unknown notification channel %q", cfg.Channel)
}
