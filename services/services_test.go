package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/starbooks/monitoring-api/database"
	"github.com/starbooks/monitoring-api/model"
	"github.com/starbooks/monitoring-api/schema"
	"github.com/starbooks/monitoring-api/services/dispatch"
	"github.com/starbooks/monitoring-api/utils/cache"
)

var testNow = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func testRegistry() *schema.Registry {
	return schema.NewRegistry(schema.Options{Now: func() time.Time { return testNow }})
}

// recordingDispatcher remembers payloads and optionally fails
type recordingDispatcher struct {
	sent []dispatch.Payload
	err  error
}

func (d *recordingDispatcher) Channel() string { return "test" }

func (d *recordingDispatcher) Dispatch(_ context.Context, p dispatch.Payload) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, p)
	return nil
}

func institutionInput(code, province, year string) map[string]any {
	return map[string]any{
		"institutionName":   "School " + code,
		"institutionalCode": code,
		"institutionType":   "Public",
		"dateOfDeployment":  year + "-03-01",
		"yearDistributed":   year,
		"completeAddress":   "Poblacion",
		"municipality":      "Town " + code,
		"province":          province,
		"email":             code + "@deped.gov.ph",
		"phone":             "077-000-0000",
		"recipientName":     "Recipient " + code,
		"unitStatus":        "Active",
	}
}

type fixture struct {
	store        *database.MemoryStore
	cache        *cache.MemoryCache
	institutions *InstitutionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := database.NewMemoryStore()
	c := cache.NewMemoryCache()
	return &fixture{
		store:        store,
		cache:        c,
		institutions: NewInstitutionService(store, testRegistry(), c, zap.NewNop()),
	}
}

func (f *fixture) addInstitution(t *testing.T, code, province, year string) *model.Institution {
	t.Helper()
	inst, err := f.institutions.Create(context.Background(), institutionInput(code, province, year))
	require.NoError(t, err)
	return inst
}

var errUnreachable = errors.New("smtp unreachable")
