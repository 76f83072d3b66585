package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func newTestRegistry() *Registry {
	return NewRegistry(Options{Now: func() time.Time { return fixedNow }})
}

func validInstitution() map[string]any {
	return map[string]any{
		"institutionName":   "Laoag City National High School",
		"institutionalCode": "LCNHS-300512",
		"institutionType":   "Public",
		"dateOfDeployment":  "2023-03-14",
		"yearDistributed":   2023,
		"completeAddress":   "Brgy. 7, Laoag City",
		"municipality":      "Laoag City",
		"province":          "Ilocos Norte",
		"email":             "lcnhs@deped.gov.ph",
		"phone":             "077-770-1234",
		"recipientName":     "Maria Santos",
		"unitStatus":        "Active",
	}
}

func mustFail(t *testing.T, r *Registry, kind EntityKind, raw map[string]any) ErrorList {
	t.Helper()
	_, err := r.Validate(kind, raw)
	require.Error(t, err)
	list, ok := err.(ErrorList)
	require.True(t, ok, "expected ErrorList, got %T", err)
	return list
}

func TestValidateInstitutionAccepted(t *testing.T) {
	r := newTestRegistry()

	rec, err := r.Validate(EntityInstitution, validInstitution())
	require.NoError(t, err)

	assert.Equal(t, "LCNHS-300512", rec.String("institutionalCode"))
	assert.Equal(t, 2023, rec.Int("yearDistributed"))
	assert.Equal(t, time.Date(2023, time.March, 14, 0, 0, 0, 0, time.UTC), rec.Time("dateOfDeployment"))
	assert.Equal(t, 0, rec.Int("gadMale"), "optional counts default to 0")
	assert.NotContains(t, rec, "region", "absent optional text stays absent")
}

func TestValidateRejectsBadInstitutionalCode(t *testing.T) {
	raw := validInstitution()
	raw["institutionalCode"] = "AB*123"

	list := mustFail(t, newTestRegistry(), EntityInstitution, raw)

	require.Len(t, list, 1)
	assert.Equal(t, ConstraintViolation, list[0].Code)
	assert.Equal(t, "institutionalCode", list[0].Field)
	assert.Equal(t, ConstraintPattern, list[0].Constraint.Name)
}

func TestValidateCollectsEveryFailureInFieldOrder(t *testing.T) {
	raw := validInstitution()
	raw["yearDistributed"] = 1800
	delete(raw, "institutionName")

	list := mustFail(t, newTestRegistry(), EntityInstitution, raw)

	require.Len(t, list, 2)
	assert.Equal(t, []string{"institutionName", "yearDistributed"}, list.Fields())
	assert.Equal(t, MissingField, list[0].Code)
	assert.Equal(t, ConstraintViolation, list[1].Code)
	assert.Equal(t, 1800, list[1].Value)
}

func TestValidateErrorKinds(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value any
		code  ErrorCode
	}{
		{"blank required string", "recipientName", "   ", MissingField},
		{"nil required value", "phone", nil, MissingField},
		{"non-numeric year", "yearDistributed", "twenty", TypeMismatch},
		{"fractional year", "yearDistributed", 2023.5, TypeMismatch},
		{"year after clock", "yearDistributed", 2026, ConstraintViolation},
		{"unparseable date", "dateOfDeployment", "14/03/2023", TypeMismatch},
		{"number for string", "institutionName", 42, TypeMismatch},
		{"unknown province", "province", "Atlantis", ConstraintViolation},
		{"unknown type", "institutionType", "Charter", ConstraintViolation},
		{"unknown status", "unitStatus", "Broken", ConstraintViolation},
		{"bad email", "email", "not-an-email", ConstraintViolation},
		{"negative count", "gadFemale", -1, ConstraintViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validInstitution()
			raw[tt.field] = tt.value

			list := mustFail(t, newTestRegistry(), EntityInstitution, raw)

			require.Len(t, list, 1)
			assert.Equal(t, tt.field, list[0].Field)
			assert.Equal(t, tt.code, list[0].Code)
		})
	}
}

func TestValidateCoercesNumbers(t *testing.T) {
	for _, v := range []any{2023, int64(2023), 2023.0, json.Number("2023"), " 2023 "} {
		raw := validInstitution()
		raw["yearDistributed"] = v

		rec, err := newTestRegistry().Validate(EntityInstitution, raw)
		require.NoError(t, err, "value %#v", v)
		assert.Equal(t, 2023, rec.Int("yearDistributed"))
	}
}

func TestValidateIgnoresUnknownKeys(t *testing.T) {
	raw := validInstitution()
	raw["favouriteColour"] = "blue"

	rec, err := newTestRegistry().Validate(EntityInstitution, raw)
	require.NoError(t, err)
	assert.NotContains(t, rec, "favouriteColour")
}

func TestValidateUnknownKind(t *testing.T) {
	_, err := newTestRegistry().Validate(EntityKind("school"), validInstitution())
	assert.ErrorIs(t, err, ErrUnknownEntity)
}

func TestValidateRecordIsRevalidatable(t *testing.T) {
	r := newTestRegistry()

	rec, err := r.Validate(EntityInstitution, validInstitution())
	require.NoError(t, err)

	again, err := r.Validate(EntityInstitution, rec)
	require.NoError(t, err)
	assert.Equal(t, rec, again)
}

func TestValidateNotificationRecipients(t *testing.T) {
	r := newTestRegistry()
	base := map[string]any{"type": "Reminder", "subject": "MOU", "message": "Please upload"}

	for _, selector := range []string{"all", "pending-mou", "La Union"} {
		raw := map[string]any{"recipients": selector}
		for k, v := range base {
			raw[k] = v
		}
		_, err := r.Validate(EntityNotification, raw)
		assert.NoError(t, err, selector)
	}

	base["recipients"] = "everyone"
	list := mustFail(t, r, EntityNotification, base)
	assert.Equal(t, []string{"recipients"}, list.Fields())
}

func TestValidateTraining(t *testing.T) {
	raw := map[string]any{
		"institutionName": "Vigan Central School",
		"trainingDate":    "2024-02-10T08:00:00Z",
		"province":        "Ilocos Sur",
		"trainers":        "J. Dela Cruz",
		"trainingType":    "orientation",
		"trainingMode":    "on-site",
		"male":            5,
		"female":          "7",
	}

	rec, err := newTestRegistry().Validate(EntityTraining, raw)
	require.NoError(t, err)
	assert.Equal(t, 7, rec.Int("female"))
	assert.Equal(t, 0, rec.Int("others"))
}

func TestRegistryTaxonomy(t *testing.T) {
	r := NewRegistry(Options{InstitutionTypes: LevelTypes, Now: func() time.Time { return fixedNow }})
	assert.Equal(t, LevelTypes, r.InstitutionTypes())

	raw := validInstitution()
	list := mustFail(t, r, EntityInstitution, raw)
	assert.Equal(t, []string{"institutionType"}, list.Fields())

	raw["institutionType"] = "Secondary"
	_, err := r.Validate(EntityInstitution, raw)
	assert.NoError(t, err)
}

func TestDescribe(t *testing.T) {
	r := newTestRegistry()

	fields := r.Describe(EntityInstitution)
	require.NotEmpty(t, fields)
	assert.Equal(t, "institutionName", fields[0].Name)

	var year FieldSpec
	for _, f := range fields {
		if f.Name == "yearDistributed" {
			year = f
		}
	}
	require.NotNil(t, year.Constraint)
	assert.Equal(t, 1900, *year.Constraint.Min)
	assert.Equal(t, 2025, *year.Constraint.Max)

	assert.Nil(t, r.Describe(EntityKind("unknown")))
}

func TestReferenceLookups(t *testing.T) {
	assert.Equal(t, "Region I", RegionOf("La Union"))
	assert.Equal(t, "CAR", RegionOf("Benguet"))
	assert.Equal(t, "", RegionOf("Atlantis"))

	types, ok := Taxonomy("LEVEL")
	assert.True(t, ok)
	assert.Equal(t, LevelTypes, types)

	_, ok = Taxonomy("religious")
	assert.False(t, ok)
}
