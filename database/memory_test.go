package database

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/starbooks/monitoring-api/config"
	"github.com/starbooks/monitoring-api/model"
)

// steppingClock advances one minute per call so creation order is observable
func steppingClock() func() time.Time {
	t := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestStore() *MemoryStore {
	s := NewMemoryStore()
	s.now = steppingClock()
	return s
}

func TestMemoryStoreInstitutionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	for _, code := range []string{"A-1", "B-2", "C-3"} {
		require.NoError(t, s.CreateInstitution(ctx, &model.Institution{InstitutionalCode: code}))
	}

	list, err := s.ListInstitutions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"C-3", "B-2", "A-1"},
		[]string{list[0].InstitutionalCode, list[1].InstitutionalCode, list[2].InstitutionalCode})
	assert.Equal(t, uint(3), list[0].ID)
}

func TestMemoryStoreDuplicateCode(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	require.NoError(t, s.CreateInstitution(ctx, &model.Institution{InstitutionalCode: "LCNHS"}))
	err := s.CreateInstitution(ctx, &model.Institution{InstitutionalCode: "LCNHS"})

	assert.ErrorIs(t, err, ErrDuplicate)
	list, _ := s.ListInstitutions(ctx)
	assert.Len(t, list, 1)
}

func TestMemoryStoreGetInstitutionNotFound(t *testing.T) {
	_, err := newTestStore().GetInstitution(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.CreateInstitution(ctx, &model.Institution{InstitutionalCode: "X", InstitutionName: "Original"}))

	got, err := s.GetInstitution(ctx, 1)
	require.NoError(t, err)
	got.InstitutionName = "Changed"

	again, _ := s.GetInstitution(ctx, 1)
	assert.Equal(t, "Original", again.InstitutionName)
}

func TestMemoryStoreAttachMOU(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.CreateInstitution(ctx, &model.Institution{InstitutionalCode: "A"}))
	require.NoError(t, s.CreateInstitution(ctx, &model.Institution{InstitutionalCode: "B"}))

	uploaded := time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)
	inst, err := s.AttachMOU(ctx, 1, model.MOUAttachment{
		Path: "mou/1/signed.pdf", FileName: "signed.pdf", FileSize: 1024, UploadedAt: uploaded,
	})
	require.NoError(t, err)
	assert.Equal(t, model.MOUStatusAvailable, inst.MOUStatus())
	assert.Equal(t, uploaded, *inst.MOUUploadedAt)

	docs, err := s.ListMOUDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, model.MOUStatusMissing, docs[0].Status)
	assert.Equal(t, model.MOUStatusAvailable, docs[1].Status)

	_, err = s.AttachMOU(ctx, 99, model.MOUAttachment{Path: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTrainingsByDate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	dates := []time.Time{
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		require.NoError(t, s.CreateTraining(ctx, &model.Training{TrainingDate: d}))
	}

	list, err := s.ListTrainings(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.May, list[0].TrainingDate.Month())
	assert.Equal(t, time.April, list[1].TrainingDate.Month())
	assert.Equal(t, time.March, list[2].TrainingDate.Month())
}

func TestMemoryStoreNotificationsEmptyList(t *testing.T) {
	list, err := newTestStore().ListNotifications(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestMemoryStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	u := &model.User{Username: "coordinator1", Role: model.RoleCoordinator}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.ErrorIs(t, s.CreateUser(ctx, &model.User{Username: "coordinator1"}), ErrDuplicate)

	count, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, s.UpdateLastLogin(ctx, u.ID))
	got, err := s.GetUserByUsername(ctx, "coordinator1")
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	_, err = s.GetUser(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.UpdateLastLogin(ctx, 404), ErrNotFound)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil, "x"))
	assert.ErrorIs(t, translate(gorm.ErrRecordNotFound, "institution 1"), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), "institution"), ErrDuplicate)

	other := errors.New("connection reset")
	err := translate(other, "list")
	assert.ErrorIs(t, err, other)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestDSN(t *testing.T) {
	env := &config.Environment{
		DB_HOST: "db", DB_USER_NAME: "starbooks", DB_PASSWORD: "secret",
		DB_NAME: "monitoring", DB_PORT: "5432", DB_SSL_MODE: "require",
	}
	assert.Equal(t,
		"host=db user=starbooks password=secret dbname=monitoring port=5432 sslmode=require TimeZone=UTC",
		DSN(env))
}
