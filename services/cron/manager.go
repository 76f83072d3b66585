package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/schema"
)

const (
	jobMOUReminder = "mou_reminder"
	jobCachePurge  = "cache_purge"

	// DefaultMOUReminderSchedule fires every Monday at 08:00 (seconds precision)
	DefaultMOUReminderSchedule = "0 0 8 * * MON"
	cachePurgeSchedule         = "0 */30 * * * *"

	jobTimeout = 5 * time.Minute
)

// Notifier is the part of the notification service the reminder job needs
type Notifier interface {
	ResolveRecipients(ctx context.Context, selector string) ([]model.Institution, error)
	Send(ctx context.Context, raw map[string]any, sentBy string) (*model.Notification, error)
}

// Purger is implemented by caches that evict lazily
type Purger interface {
	PurgeExpired() int
}

// Config selects which jobs run and when
type Config struct {
	MOUReminderSchedule string
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron     *cron.Cron
	config   Config
	notifier Notifier
	purger   Purger
	log      *zap.Logger
}

// NewCronManager creates a new cron manager. purger may be nil.
func NewCronManager(cfg Config, notifier Notifier, purger Purger, log *zap.Logger) *CronManager {
	if cfg.MOUReminderSchedule == "" {
		cfg.MOUReminderSchedule = DefaultMOUReminderSchedule
	}

	return &CronManager{
		cron:     cron.New(cron.WithSeconds()),
		config:   cfg,
		notifier: notifier,
		purger:   purger,
		log:      log.Named("cron"),
	}
}

// Start registers every job and starts the scheduler
func (m *CronManager) Start() error {
	m.log.Info("starting cron jobs")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	m.log.Info("cron jobs started", zap.Int("jobs", len(m.cron.Entries())))
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (m *CronManager) Stop() {
	m.log.Info("stopping cron jobs")
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("cron jobs stopped")
}

func (m *CronManager) registerJobs() error {
	_, err := m.cron.AddFunc(m.config.MOUReminderSchedule, func() {
		m.logJobStart(jobMOUReminder)
		m.SendMOUReminders()
	})
	if err != nil {
		return err
	}

	if m.purger != nil {
		_, err = m.cron.AddFunc(cachePurgeSchedule, func() {
			m.logJobStart(jobCachePurge)
			m.PurgeCache()
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// SendMOUReminders sends one Reminder notification to every institution that
// has not uploaded its signed MOU. Nothing is sent when none are pending.
func (m *CronManager) SendMOUReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	pending, err := m.notifier.ResolveRecipients(ctx, schema.RecipientsPendingMOU)
	if err != nil {
		m.logJobError(jobMOUReminder, err)
		return
	}
	if len(pending) == 0 {
		m.logJobComplete(jobMOUReminder, "no institutions pending MOU")
		return
	}

	n, err := m.notifier.Send(ctx, map[string]any{
		"type":       "Reminder",
		"recipients": schema.RecipientsPendingMOU,
		"subject":    "Reminder: signed MOU still pending",
		"message": "Our records show that the signed Memorandum of Understanding for your " +
			"STARBOOKS kiosk has not been uploaded yet. Please send a scanned copy to your " +
			"provincial coordinator at your earliest convenience.",
	}, "system")
	if err != nil {
		m.logJobError(jobMOUReminder, err)
		return
	}

	m.log.Info("mou reminders sent",
		zap.Uint("notification_id", n.ID),
		zap.Int("recipient_count", n.RecipientCount),
	)
	m.logJobComplete(jobMOUReminder, "reminder dispatched")
}

// PurgeCache evicts expired entries from an in-process cache
func (m *CronManager) PurgeCache() {
	removed := m.purger.PurgeExpired()
	m.logJobComplete(jobCachePurge, "expired entries removed", zap.Int("removed", removed))
}

func (m *CronManager) logJobStart(jobName string) {
	m.log.Info("job started", zap.String("job", jobName), zap.Time("started_at", time.Now()))
}

func (m *CronManager) logJobComplete(jobName, message string, fields ...zap.Field) {
	m.log.Info("job completed", append([]zap.Field{zap.String("job", jobName), zap.String("message", message)}, fields...)...)
}

func (m *CronManager) logJobError(jobName string, err error) {
	m.log.Error("job failed", zap.String("job", jobName), zap.Error(err))
}
