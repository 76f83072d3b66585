package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/utils/cache"
	"github.com/starbooks/monitoring-api/utils/query"
)

// InstitutionService validates and records kiosk deployments
type InstitutionService struct {
	store    database.Storage
	registry *schema.Registry
	cache    cache.Cache
	log      *zap.Logger
}

// NewInstitutionService creates a new institution service
func NewInstitutionService(store database.Storage, registry *schema.Registry, c cache.Cache, log *zap.Logger) *InstitutionService {
	return &InstitutionService{store: store, registry: registry, cache: c, log: log}
}

// Validate runs the institution schema without persisting anything
func (s *InstitutionService) Validate(raw map[string]any) (schema.Record, error) {
	return s.registry.Validate(schema.EntityInstitution, raw)
}

// Create validates raw input and stores the institution. A schema.ErrorList
// is returned when any field fails; nothing is written in that case.
func (s *InstitutionService) Create(ctx context.Context, raw map[string]any) (*model.Institution, error) {
	rec, err := s.Validate(raw)
	if err != nil {
		return nil, err
	}

	inst := model.NewInstitution(rec)
	if err := s.store.CreateInstitution(ctx, &inst); err != nil {
		return nil, err
	}

	s.log.Info("institution created",
		zap.Uint("id", inst.ID),
		zap.String("code", inst.InstitutionalCode),
		zap.String("province", inst.Province),
	)
	invalidateSummaries(ctx, s.cache, s.log)
	return &inst, nil
}

// Get returns one institution
func (s *InstitutionService) Get(ctx context.Context, id uint) (*model.Institution, error) {
	return s.store.GetInstitution(ctx, id)
}

// List returns the institutions matching spec, newest first
func (s *InstitutionService) List(ctx context.Context, spec query.FilterSpec) ([]model.Institution, error) {
	all, err := s.store.ListInstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load institutions: %w", err)
	}
	return query.Filter(all, spec), nil
}
