package dispatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// pg_notify payloads are limited to 8000 bytes
const maxNotifyPayload = 7999

// PostgresDispatcher publishes the payload with pg_notify so LISTENing
// workers can deliver it
type PostgresDispatcher struct {
	db      *sql.DB
	channel string
	log     *zap.Logger
}

// NewPostgresDispatcher publishes on the given LISTEN channel
func NewPostgresDispatcher(db *sql.DB, channel string, log *zap.Logger) *PostgresDispatcher {
	return &PostgresDispatcher{db: db, channel: channel, log: log}
}

func (d *PostgresDispatcher) Channel() string { return ChannelPostgres }

func (d *PostgresDispatcher) Dispatch(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return failed(ChannelPostgres, err)
	}
	if len(body) > maxNotifyPayload {
		// listeners look the recipients up again from the selector
		trimmed := p
		trimmed.To = nil
		if body, err = json.Marshal(trimmed); err != nil {
			return failed(ChannelPostgres, err)
		}
		if len(body) > maxNotifyPayload {
			return failed(ChannelPostgres, fmt.Errorf("payload of %d bytes exceeds pg_notify limit", len(body)))
		}
	}

	if _, err := d.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", d.channel, string(body)); err != nil {
		return failed(ChannelPostgres, err)
	}

	d.log.Info("notification published", zap.String("channel", d.channel), zap.Int("bytes", len(body)))
	return nil
}
