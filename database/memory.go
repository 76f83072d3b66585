package database

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/starbooks/monitoring-api/model"
)

// MemoryStore keeps every record in process memory. It backs the handler
// tests and STORAGE_DRIVER=memory for local development.
type MemoryStore struct {
	mu sync.RWMutex

	institutions  []model.Institution
	trainings     []model.Training
	notifications []model.Notification
	users         []model.User
	nextID        map[string]uint

	now func() time.Time
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: make(map[string]uint), now: time.Now}
}

func (s *MemoryStore) Init() error        { return nil }
func (s *MemoryStore) Close() error       { return nil }
func (s *MemoryStore) HealthCheck() error { return nil }
func (s *MemoryStore) GetDB() interface{} { return nil }

// id hands out the next sequence value of table; callers hold mu
func (s *MemoryStore) id(table string) uint {
	s.nextID[table]++
	return s.nextID[table]
}

// newestFirst returns a copy of records sorted by key descending, then id descending
func newestFirst[T any](records []T, key func(T) time.Time, id func(T) uint) []T {
	out := slices.Clone(records)
	if out == nil {
		out = []T{}
	}
	slices.SortStableFunc(out, func(a, b T) int {
		if c := key(b).Compare(key(a)); c != 0 {
			return c
		}
		return cmp.Compare(id(b), id(a))
	})
	return out
}

func (s *MemoryStore) ListInstitutions(ctx context.Context) ([]model.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.institutions,
		func(i model.Institution) time.Time { return i.CreatedAt },
		func(i model.Institution) uint { return i.ID }), nil
}

func (s *MemoryStore) GetInstitution(ctx context.Context, id uint) (*model.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inst := range s.institutions {
		if inst.ID == id {
			return &inst, nil
		}
	}
	return nil, fmt.Errorf("institution %d: %w", id, ErrNotFound)
}

func (s *MemoryStore) CreateInstitution(ctx context.Context, inst *model.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.institutions {
		if existing.InstitutionalCode == inst.InstitutionalCode {
			return fmt.Errorf("create institution %s: %w", inst.InstitutionalCode, ErrDuplicate)
		}
	}
	now := s.now()
	inst.ID = s.id("institutions")
	inst.CreatedAt = now
	inst.UpdatedAt = now
	s.institutions = append(s.institutions, *inst)
	return nil
}

func (s *MemoryStore) AttachMOU(ctx context.Context, id uint, att model.MOUAttachment) (*model.Institution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.institutions {
		inst := &s.institutions[i]
		if inst.ID != id {
			continue
		}
		uploadedAt := att.UploadedAt
		inst.MOUDocumentPath = att.Path
		inst.MOUFileName = att.FileName
		inst.MOUFileSize = att.FileSize
		inst.MOUUploadedAt = &uploadedAt
		inst.UpdatedAt = s.now()
		out := *inst
		return &out, nil
	}
	return nil, fmt.Errorf("institution %d: %w", id, ErrNotFound)
}

func (s *MemoryStore) ListMOUDocuments(ctx context.Context) ([]model.MOUDocument, error) {
	institutions, _ := s.ListInstitutions(ctx)
	docs := make([]model.MOUDocument, 0, len(institutions))
	for _, inst := range institutions {
		docs = append(docs, model.NewMOUDocument(inst))
	}
	return docs, nil
}

func (s *MemoryStore) CreateTraining(ctx context.Context, t *model.Training) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id("trainings")
	t.CreatedAt = s.now()
	s.trainings = append(s.trainings, *t)
	return nil
}

func (s *MemoryStore) ListTrainings(ctx context.Context) ([]model.Training, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.trainings,
		func(t model.Training) time.Time { return t.TrainingDate },
		func(t model.Training) uint { return t.ID }), nil
}

func (s *MemoryStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.id("notifications")
	n.CreatedAt = s.now()
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newestFirst(s.notifications,
		func(n model.Notification) time.Time { return n.SentDate },
		func(n model.Notification) uint { return n.ID }), nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uint) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
}

func (s *MemoryStore) CreateUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("create user %s: %w", u.Username, ErrDuplicate)
		}
	}
	now := s.now()
	u.ID = s.id("users")
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users = append(s.users, *u)
	return nil
}

func (s *MemoryStore) CountUsers(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *MemoryStore) UpdateLastLogin(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			now := s.now()
			s.users[i].LastLoginAt = &now
			return nil
		}
	}
	return fmt.Errorf("user %d: %w", id, ErrNotFound)
}
