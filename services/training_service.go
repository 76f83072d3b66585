package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/utils/aggregate"
	"github.com/starbooks/monitoring-api/utils/cache"
	"github.com/starbooks/monitoring-api/utils/query"
)

// ParticipantTotals sums participants by gender
type ParticipantTotals struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Others int `json:"others"`
	Total  int `json:"total"`
}

// TrainingService records trainings held for deployed institutions
type TrainingService struct {
	store    database.Storage
	registry *schema.Registry
	cache    cache.Cache
	log      *zap.Logger
}

func NewTrainingService(store database.Storage, registry *schema.Registry, c cache.Cache, log *zap.Logger) *TrainingService {
	return &TrainingService{store: store, registry: registry, cache: c, log: log}
}

// Create validates raw input and stores the training
func (s *TrainingService) Create(ctx context.Context, raw map[string]any) (*model.Training, error) {
	rec, err := s.registry.Validate(schema.EntityTraining, raw)
	if err != nil {
		return nil, err
	}

	t := model.NewTraining(rec)
	if err := s.store.CreateTraining(ctx, &t); err != nil {
		return nil, err
	}

	s.log.Info("training recorded",
		zap.Uint("id", t.ID),
		zap.String("institution", t.InstitutionName),
		zap.Int("participants", t.Total()),
	)
	invalidateSummaries(ctx, s.cache, s.log)
	return &t, nil
}

// List returns the trainings matching spec, latest first, with participant
// totals over the filtered set
func (s *TrainingService) List(ctx context.Context, spec query.FilterSpec) ([]model.Training, ParticipantTotals, error) {
	all, err := s.store.ListTrainings(ctx)
	if err != nil {
		return nil, ParticipantTotals{}, fmt.Errorf("failed to load trainings: %w", err)
	}
	trainings := query.Filter(all, spec)
	return trainings, SumParticipants(trainings), nil
}

// SumParticipants totals training participants by gender
func SumParticipants(trainings []model.Training) ParticipantTotals {
	totals := ParticipantTotals{
		Male:   aggregate.Sum(trainings, func(t model.Training) int { return t.Male }),
		Female: aggregate.Sum(trainings, func(t model.Training) int { return t.Female }),
		Others: aggregate.Sum(trainings, func(t model.Training) int { return t.Others }),
	}
	totals.Total = totals.Male + totals.Female + totals.Others
	return totals
}
