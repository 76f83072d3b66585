package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/services/dispatch"
	"github.com/starbooks/monitoring-api/utils/query"
)

// NotificationService composes, dispatches and records coordination notices.
// A notification is stored only after the dispatcher accepted it.
type NotificationService struct {
	store      database.Storage
	registry   *schema.Registry
	dispatcher dispatch.Dispatcher
	log        *zap.Logger
	now        func() time.Time
}

// NewNotificationService creates a new notification service
func NewNotificationService(store database.Storage, registry *schema.Registry, dispatcher dispatch.Dispatcher, log *zap.Logger) *NotificationService {
	return &NotificationService{
		store:      store,
		registry:   registry,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
	}
}

// ResolveRecipients expands a recipients selector into institutions: "all",
// "pending-mou" (no MOU uploaded yet) or a province name.
func (s *NotificationService) ResolveRecipients(ctx context.Context, selector string) ([]model.Institution, error) {
	all, err := s.store.ListInstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load institutions: %w", err)
	}

	out := make([]model.Institution, 0, len(all))
	for _, inst := range all {
		switch selector {
		case schema.RecipientsAll:
			out = append(out, inst)
		case schema.RecipientsPendingMOU:
			if inst.MOUStatus() == model.MOUStatusMissing {
				out = append(out, inst)
			}
		default:
			if inst.Province == selector {
				out = append(out, inst)
			}
		}
	}
	return out, nil
}

// Send validates raw input, dispatches it and records it as Sent. A
// dispatch failure is returned wrapped in dispatch.ErrDispatchFailed and
// leaves history untouched.
func (s *NotificationService) Send(ctx context.Context, raw map[string]any, sentBy string) (*model.Notification, error) {
	rec, err := s.registry.Validate(schema.EntityNotification, raw)
	if err != nil {
		return nil, err
	}
	n := model.NewNotification(rec)

	institutions, err := s.ResolveRecipients(ctx, n.Recipients)
	if err != nil {
		return nil, err
	}

	to := make([]dispatch.Recipient, 0, len(institutions))
	meta := make([]model.NotificationRecipient, 0, len(institutions))
	for _, inst := range institutions {
		to = append(to, dispatch.Recipient{
			InstitutionID: inst.ID,
			Name:          inst.RecipientName,
			Email:         inst.Email,
			Province:      inst.Province,
		})
		meta = append(meta, model.NotificationRecipient{
			InstitutionID:   inst.ID,
			InstitutionName: inst.InstitutionName,
			Email:           inst.Email,
			Province:        inst.Province,
		})
	}

	err = s.dispatcher.Dispatch(ctx, dispatch.Payload{
		NotificationType: n.Type,
		Selector:         n.Recipients,
		Subject:          n.Subject,
		Message:          n.Message,
		To:               to,
	})
	if err != nil {
		s.log.Error("notification dispatch failed",
			zap.String("channel", s.dispatcher.Channel()),
			zap.String("recipients", n.Recipients),
			zap.Error(err),
		)
		return nil, err
	}

	metadata, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipients: %w", err)
	}

	n.SentDate = s.now().UTC()
	n.Status = model.NotificationStatusSent
	n.RecipientCount = len(to)
	n.Channel = s.dispatcher.Channel()
	n.SentBy = sentBy
	n.Metadata = datatypes.JSON(metadata)

	if err := s.store.CreateNotification(ctx, &n); err != nil {
		return nil, err
	}

	s.log.Info("notification sent",
		zap.Uint("id", n.ID),
		zap.String("recipients", n.Recipients),
		zap.Int("recipient_count", n.RecipientCount),
	)
	return &n, nil
}

// List returns notification history matching spec, latest first
func (s *NotificationService) List(ctx context.Context, spec query.FilterSpec) ([]model.Notification, error) {
	all, err := s.store.ListNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	return query.Filter(all, spec), nil
}
