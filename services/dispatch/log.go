package dispatch

import (
	"context"

	"go.uber.org/zap"
)

// LogDispatcher only records the notification; it is the development default
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Channel() string { return ChannelLog }

func (d *LogDispatcher) Dispatch(_ context.Context, p Payload) error {
	d.log.Info("notification dispatched",
		zap.String("type", p.NotificationType),
		zap.String("recipients", p.Selector),
		zap.String("subject", p.Subject),
		zap.Int("recipient_count", len(p.To)),
	)
	return nil
}
