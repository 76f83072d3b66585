package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/starbooks/monitoring-api/model"
)

func setupMockStore(t *testing.T) (*GORMStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewGORMStore(gdb, zap.NewNop()), mock
}

func testAttachment() model.MOUAttachment {
	return model.MOUAttachment{
		Path:       "mou/9/abcd1234_signed.pdf",
		FileName:   "signed.pdf",
		FileSize:   2048,
		UploadedAt: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestGORMStoreAttachMOUMissingInstitution(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "institutions" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	inst, err := store.AttachMOU(context.Background(), 9, testAttachment())
	assert.Nil(t, inst)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGORMStoreAttachMOUUpdateError(t *testing.T) {
	store, mock := setupMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "institutions" SET`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := store.AttachMOU(context.Background(), 9, testAttachment())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "attach MOU to institution 9")
	assert.NoError(t, mock.ExpectationsWereMet())
}
