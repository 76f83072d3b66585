package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/utils/aggregate"
	"github.com/starbooks/monitoring-api/utils/cache"
	"github.com/starbooks/monitoring-api/utils/query"
)

// GADTotals sums gender-and-development participants across institutions
type GADTotals struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Others int `json:"others"`
	Total  int `json:"total"`
}

// TrainingSummary describes the trainings held in the report's provinces
type TrainingSummary struct {
	Count        int                            `json:"count"`
	ByType       []aggregate.GroupCount[string] `json:"byType"`
	ByMode       []aggregate.GroupCount[string] `json:"byMode"`
	Participants ParticipantTotals              `json:"participants"`
}

// SummaryReport is the filtered deployment report
type SummaryReport struct {
	Filters           query.FilterSpec               `json:"filters"`
	TotalInstitutions int                            `json:"totalInstitutions"`
	ByProvince        []aggregate.GroupCount[string] `json:"byProvince"`
	ByType            []aggregate.GroupCount[string] `json:"byType"`
	ByYear            []aggregate.GroupCount[int]    `json:"byYear"`
	ByStatus          []aggregate.GroupCount[string] `json:"byStatus"`
	ByMOUStatus       []aggregate.GroupCount[string] `json:"byMouStatus"`
	GAD               GADTotals                      `json:"gad"`
	Trainings         TrainingSummary                `json:"trainings"`
	GeneratedAt       time.Time                      `json:"generatedAt"`
}

// ReportService produces summary reports over filtered institutions
type ReportService struct {
	store database.Storage
	cache cache.Cache
	log   *zap.Logger
	now   func() time.Time
}

func NewReportService(store database.Storage, c cache.Cache, log *zap.Logger) *ReportService {
	return &ReportService{store: store, cache: c, log: log, now: time.Now}
}

// reportKey encodes every filter value escaped, so distinct specs never
// share a cache entry
func reportKey(spec query.FilterSpec) string {
	v := url.Values{}
	v.Set("q", spec.Query)
	v.Set("province", spec.Province)
	v.Set("status", spec.Status)
	v.Set("year", spec.Year)
	v.Set("type", spec.Type)
	v["fields"] = spec.SearchFields
	return reportCachePrefix + v.Encode()
}

// Summary builds (or loads from cache) the report for spec
func (s *ReportService) Summary(ctx context.Context, spec query.FilterSpec) (*SummaryReport, error) {
	key := reportKey(spec)
	var cached SummaryReport
	err := s.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.log.Warn("report cache read failed", zap.Error(err))
	}

	institutions, err := s.store.ListInstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load institutions: %w", err)
	}
	trainings, err := s.store.ListTrainings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trainings: %w", err)
	}

	report := BuildSummaryReport(institutions, trainings, spec, s.now())
	if err := s.cache.SetJSON(ctx, key, report, summaryCacheTTL); err != nil {
		s.log.Warn("report cache write failed", zap.Error(err))
	}
	return report, nil
}

// BuildSummaryReport filters institutions by spec and aggregates them.
// Trainings are narrowed by the province and year predicates only.
func BuildSummaryReport(institutions []model.Institution, trainings []model.Training, spec query.FilterSpec, now time.Time) *SummaryReport {
	filtered := query.Filter(institutions, spec)
	filteredTrainings := query.Filter(trainings, query.FilterSpec{Province: spec.Province, Year: spec.Year})

	gad := GADTotals{
		Male:   aggregate.Sum(filtered, func(i model.Institution) int { return i.GADMale }),
		Female: aggregate.Sum(filtered, func(i model.Institution) int { return i.GADFemale }),
		Others: aggregate.Sum(filtered, func(i model.Institution) int { return i.GADOthers }),
	}
	gad.Total = gad.Male + gad.Female + gad.Others

	return &SummaryReport{
		Filters:           spec,
		TotalInstitutions: len(filtered),
		ByProvince:        aggregate.CountsByGroup(filtered, func(i model.Institution) string { return i.Province }),
		ByType:            aggregate.CountsByGroup(filtered, func(i model.Institution) string { return i.InstitutionType }),
		ByYear:            aggregate.CountsByGroup(filtered, func(i model.Institution) int { return i.YearDistributed }),
		ByStatus:          aggregate.CountsByGroup(filtered, func(i model.Institution) string { return string(i.UnitStatus) }),
		ByMOUStatus:       aggregate.CountsByGroup(filtered, func(i model.Institution) string { return string(i.MOUStatus()) }),
		GAD:               gad,
		Trainings: TrainingSummary{
			Count:        len(filteredTrainings),
			ByType:       aggregate.CountsByGroup(filteredTrainings, func(t model.Training) string { return t.TrainingType }),
			ByMode:       aggregate.CountsByGroup(filteredTrainings, func(t model.Training) string { return t.TrainingMode }),
			Participants: SumParticipants(filteredTrainings),
		},
		GeneratedAt: now.UTC(),
	}
}
