package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starbooks/monitoring-api/schema"
)

func TestGetAppliesDefaults(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "")
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("INSTITUTION_TYPES", "")

	env, err := Get()
	require.NoError(t, err)

	assert.Equal(t, "memory", env.STORAGE_DRIVER)
	assert.Equal(t, "0 0 8 * * MON", env.MOU_REMINDER_SCHEDULE)
	assert.Equal(t, 7*24*time.Hour, env.JWT_REFRESH_EXPIRY)
	assert.Empty(t, env.INSTITUTION_TYPES)
}

func TestGetReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_EXPIRY", "30m")
	t.Setenv("GO_ENV", "production")
	t.Setenv("INSTITUTION_TYPES", " Elementary , ,High School")

	env, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 9090, env.PORT)
	assert.Equal(t, 30*time.Minute, env.JWT_EXPIRY)
	assert.True(t, env.IsProduction())
	assert.Equal(t, []string{"Elementary", "High School"}, env.INSTITUTION_TYPES)
}

func TestInstitutionTypeList(t *testing.T) {
	tests := []struct {
		name     string
		env      Environment
		expected []string
		wantErr  bool
	}{
		{"default taxonomy", Environment{}, schema.OwnershipTypes, false},
		{"level taxonomy", Environment{INSTITUTION_TAXONOMY: "Level"}, schema.LevelTypes, false},
		{"explicit list wins", Environment{INSTITUTION_TAXONOMY: "level", INSTITUTION_TYPES: []string{"SUC"}}, []string{"SUC"}, false},
		{"unknown taxonomy", Environment{INSTITUTION_TAXONOMY: "size"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			types, err := tt.env.InstitutionTypeList()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, types)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , "))
	assert.Equal(t, []string{"a", "b"}, splitList("a,b"))
}
