package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/utils/aggregate"
	"github.com/starbooks/monitoring-api/utils/cache"
	"github.com/starbooks/monitoring-api/utils/paginate"
)

const (
	dashboardCachePrefix = "dashboard:"
	reportCachePrefix    = "report:"
	summaryCacheTTL      = 5 * time.Minute

	// RecentDeploymentsPageSize is the dashboard's recent deployments page size
	RecentDeploymentsPageSize = 4
)

// invalidateSummaries drops cached dashboards and reports after a write
func invalidateSummaries(ctx context.Context, c cache.Cache, log *zap.Logger) {
	for _, prefix := range []string{dashboardCachePrefix, reportCachePrefix} {
		if err := c.DeletePrefix(ctx, prefix); err != nil {
			log.Warn("failed to invalidate cached summaries", zap.String("prefix", prefix), zap.Error(err))
		}
	}
}

// DashboardStats are the headline counters
type DashboardStats struct {
	TotalInstitutions int `json:"totalInstitutions"`
	ActiveUnits       int `json:"activeUnits"`
	InactiveUnits     int `json:"inactiveUnits"`
	MOUAvailable      int `json:"mouAvailable"`
	MOUMissing        int `json:"mouMissing"`
	ProvincesCovered  int `json:"provincesCovered"`
	TotalTrainings    int `json:"totalTrainings"`
	TotalParticipants int `json:"totalParticipants"`
}

// Dashboard is the landing view of the monitoring console
type Dashboard struct {
	Stats                DashboardStats                   `json:"stats"`
	MonthlyTrend         []aggregate.MonthCount           `json:"monthlyTrend"`
	TypeDistribution     []aggregate.GroupCount[string]   `json:"typeDistribution"`
	ProvinceDistribution []aggregate.GroupCount[string]   `json:"provinceDistribution"`
	Municipalities       map[string][]string              `json:"municipalities"`
	RecentDeployments    paginate.Page[model.Institution] `json:"recentDeployments"`
	GeneratedAt          time.Time                        `json:"generatedAt"`
}

// DashboardQuery selects the trend window and the recent deployments page.
// Year 0 means the trailing twelve months.
type DashboardQuery struct {
	Year     int
	Page     int
	PageSize int
}

// DashboardService computes dashboards, cached for a few minutes
type DashboardService struct {
	store database.Storage
	cache cache.Cache
	log   *zap.Logger
	now   func() time.Time
}

func NewDashboardService(store database.Storage, c cache.Cache, log *zap.Logger) *DashboardService {
	return &DashboardService{store: store, cache: c, log: log, now: time.Now}
}

// Dashboard returns the cached dashboard for q or builds a fresh one
func (s *DashboardService) Dashboard(ctx context.Context, q DashboardQuery) (*Dashboard, error) {
	if q.PageSize < 1 {
		q.PageSize = RecentDeploymentsPageSize
	}
	q.PageSize, q.Page = paginate.Normalize(q.PageSize, q.Page)

	key := fmt.Sprintf("%s%d:%d:%d", dashboardCachePrefix, q.Year, q.Page, q.PageSize)
	var cached Dashboard
	err := s.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		s.log.Warn("dashboard cache read failed", zap.Error(err))
	}

	institutions, err := s.store.ListInstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load institutions: %w", err)
	}
	trainings, err := s.store.ListTrainings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load trainings: %w", err)
	}

	d := BuildDashboard(institutions, trainings, q, s.now())
	if err := s.cache.SetJSON(ctx, key, d, summaryCacheTTL); err != nil {
		s.log.Warn("dashboard cache write failed", zap.Error(err))
	}
	return d, nil
}

// BuildDashboard aggregates the dashboard from full collections
func BuildDashboard(institutions []model.Institution, trainings []model.Training, q DashboardQuery, now time.Time) *Dashboard {
	if q.PageSize < 1 {
		q.PageSize = RecentDeploymentsPageSize
	}

	stats := DashboardStats{
		TotalInstitutions: len(institutions),
		TotalTrainings:    len(trainings),
		TotalParticipants: SumParticipants(trainings).Total,
	}
	provinces := make(map[string]struct{})
	for _, inst := range institutions {
		if inst.UnitStatus == model.UnitStatusActive {
			stats.ActiveUnits++
		} else {
			stats.InactiveUnits++
		}
		if inst.MOUStatus() == model.MOUStatusAvailable {
			stats.MOUAvailable++
		} else {
			stats.MOUMissing++
		}
		provinces[inst.Province] = struct{}{}
	}
	stats.ProvincesCovered = len(provinces)

	months := aggregate.LastNMonths(now, 12)
	if q.Year > 0 {
		months = aggregate.MonthsOfYear(q.Year)
	}

	recent := slices.Clone(institutions)
	slices.SortStableFunc(recent, func(a, b model.Institution) int {
		if c := b.DateOfDeployment.Compare(a.DateOfDeployment); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	return &Dashboard{
		Stats: stats,
		MonthlyTrend: aggregate.MonthlyTrend(institutions,
			func(i model.Institution) time.Time { return i.DateOfDeployment }, months),
		TypeDistribution: aggregate.CountsByGroup(institutions,
			func(i model.Institution) string { return i.InstitutionType }),
		ProvinceDistribution: aggregate.CountsByGroup(institutions,
			func(i model.Institution) string { return i.Province }),
		Municipalities:    MunicipalitiesByProvince(institutions),
		RecentDeployments: paginate.PageOf(recent, q.PageSize, q.Page),
		GeneratedAt:       now.UTC(),
	}
}

// MunicipalitiesByProvince maps each province to its distinct, sorted
// municipalities; institutions without a municipality are left out
func MunicipalitiesByProvince(institutions []model.Institution) map[string][]string {
	out := make(map[string][]string)
	groups := aggregate.GroupBy(institutions, func(i model.Institution) string { return i.Province })
	for province, group := range groups {
		var names []string
		for _, inst := range group {
			if inst.Municipality != "" {
				names = append(names, inst.Municipality)
			}
		}
		if len(names) == 0 {
			continue
		}
		slices.Sort(names)
		out[province] = slices.Compact(names)
	}
	return out
}
