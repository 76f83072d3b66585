package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookDispatcher posts the payload as JSON to an HTTP endpoint
type WebhookDispatcher struct {
	httpClient *resty.Client
	url        string
	log        *zap.Logger
}

// NewWebhookDispatcher creates a dispatcher posting to url
func NewWebhookDispatcher(url string, log *zap.Logger) *WebhookDispatcher {
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookDispatcher{httpClient: client, url: url, log: log}
}

func (d *WebhookDispatcher) Channel() string { return ChannelWebhook }

func (d *WebhookDispatcher) Dispatch(ctx context.Context, p Payload) error {
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetBody(p).
		Post(d.url)
	if err != nil {
		d.log.Error("notification webhook failed", zap.Error(err))
		return failed(ChannelWebhook, err)
	}
	if resp.IsError() {
		d.log.Error("notification webhook rejected",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return failed(ChannelWebhook, fmt.Errorf("webhook responded %d", resp.StatusCode()))
	}

	d.log.Info("notification posted to webhook", zap.Int("status_code", resp.StatusCode()))
	return nil
}
