package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/starbooks/monitoring-api/config"
	"github.com/starbooks/monitoring-api/model"
)

type GORMStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM(env *config.Environment, log *zap.Logger) (*GORMStore, error) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if env.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(postgres.Open(DSN(env)), &gorm.Config{
		Logger:         gormLogger,
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		log.Error("unable to connect to PostgreSQL with GORM", zap.Error(err))
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to PostgreSQL with GORM", zap.String("host", env.DB_HOST), zap.String("db", env.DB_NAME))

	return &GORMStore{db: db, log: log}, nil
}

// NewGORMStore wraps an already opened connection
func NewGORMStore(db *gorm.DB, log *zap.Logger) *GORMStore {
	return &GORMStore{db: db, log: log}
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	s.log.Info("running GORM AutoMigrate")

	err := s.db.AutoMigrate(
		&model.User{},
		&model.Institution{},
		&model.Training{},
		&model.Notification{},
	)
	if err != nil {
		s.log.Error("AutoMigrate failed", zap.Error(err))
		return err
	}

	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.log.Info("closing GORM PostgreSQL connection")
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the GORM DB instance
func (s *GORMStore) GetDB() interface{} {
	return s.db
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// translate maps gorm errors onto the storage sentinels
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (s *GORMStore) ListInstitutions(ctx context.Context) ([]model.Institution, error) {
	institutions := []model.Institution{}
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&institutions).Error
	return institutions, translate(err, "list institutions")
}

func (s *GORMStore) GetInstitution(ctx context.Context, id uint) (*model.Institution, error) {
	var inst model.Institution
	if err := s.db.WithContext(ctx).First(&inst, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("institution %d", id))
	}
	return &inst, nil
}

func (s *GORMStore) CreateInstitution(ctx context.Context, inst *model.Institution) error {
	return translate(s.db.WithContext(ctx).Create(inst).Error, "create institution "+inst.InstitutionalCode)
}

func (s *GORMStore) AttachMOU(ctx context.Context, id uint, att model.MOUAttachment) (*model.Institution, error) {
	uploadedAt := att.UploadedAt
	result := s.db.WithContext(ctx).Model(&model.Institution{}).Where("id = ?", id).Updates(map[string]interface{}{
		"mou_document_path": att.Path,
		"mou_file_name":     att.FileName,
		"mou_file_size":     att.FileSize,
		"mou_uploaded_at":   &uploadedAt,
	})
	if result.Error != nil {
		return nil, translate(result.Error, fmt.Sprintf("attach MOU to institution %d", id))
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("institution %d: %w", id, ErrNotFound)
	}
	return s.GetInstitution(ctx, id)
}

func (s *GORMStore) ListMOUDocuments(ctx context.Context) ([]model.MOUDocument, error) {
	institutions, err := s.ListInstitutions(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]model.MOUDocument, 0, len(institutions))
	for _, inst := range institutions {
		docs = append(docs, model.NewMOUDocument(inst))
	}
	return docs, nil
}

func (s *GORMStore) CreateTraining(ctx context.Context, t *model.Training) error {
	return translate(s.db.WithContext(ctx).Create(t).Error, "create training")
}

func (s *GORMStore) ListTrainings(ctx context.Context) ([]model.Training, error) {
	trainings := []model.Training{}
	err := s.db.WithContext(ctx).Order("training_date DESC, id DESC").Find(&trainings).Error
	return trainings, translate(err, "list trainings")
}

func (s *GORMStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	return translate(s.db.WithContext(ctx).Create(n).Error, "create notification")
}

func (s *GORMStore) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	notifications := []model.Notification{}
	err := s.db.WithContext(ctx).Order("sent_date DESC, id DESC").Find(&notifications).Error
	return notifications, translate(err, "list notifications")
}

func (s *GORMStore) GetUser(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("user %d", id))
	}
	return &u, nil
}

func (s *GORMStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err, "user "+username)
	}
	return &u, nil
}

func (s *GORMStore) CreateUser(ctx context.Context, u *model.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error, "create user "+u.Username)
}

func (s *GORMStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Count(&count).Error
	return count, translate(err, "count users")
}

func (s *GORMStore) UpdateLastLogin(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login_at", time.Now()).Error
	return translate(err, fmt.Sprintf("update last login of user %d", id))
}
