package database

import (
	"context"
	"errors"

	"github.com/starbooks/monitoring-api/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Storage defines the interface that all database implementations must satisfy.
// List methods return newest records first.
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck() error

	// GetDB returns *gorm.DB for GORMStore and nil for MemoryStore
	GetDB() interface{}

	ListInstitutions(ctx context.Context) ([]model.Institution, error)
	GetInstitution(ctx context.Context, id uint) (*model.Institution, error)
	CreateInstitution(ctx context.Context, inst *model.Institution) error
	AttachMOU(ctx context.Context, id uint, att model.MOUAttachment) (*model.Institution, error)
	ListMOUDocuments(ctx context.Context) ([]model.MOUDocument, error)

	CreateTraining(ctx context.Context, t *model.Training) error
	ListTrainings(ctx context.Context) ([]model.Training, error)

	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context) ([]model.Notification, error)

	GetUser(ctx context.Context, id uint) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
	CountUsers(ctx context.Context) (int64, error)
	UpdateLastLogin(ctx context.Context, id uint) error
}

var (
	_ Storage = (*GORMStore)(nil)
	_ Storage = (*MemoryStore)(nil)
)
