// Package schema declares the shape and constraints of every record the
// monitoring API accepts and validates untrusted input against them.
package schema

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// EntityKind identifies a record type with a declared schema
type EntityKind string

const (
	EntityInstitution  EntityKind = "institution"
	EntityTraining     EntityKind = "training"
	EntityNotification EntityKind = "notification"
)

// Kinds lists every entity kind the registry can describe
var Kinds = []EntityKind{EntityInstitution, EntityTraining, EntityNotification}

// FieldKind is the primitive type a field value is coerced to
type FieldKind string

const (
	KindString FieldKind = "string"
	KindNumber FieldKind = "number"
	KindDate   FieldKind = "date"
	KindEnum   FieldKind = "enum"
)

// Constraint names
const (
	ConstraintPattern = "pattern"
	ConstraintRange   = "range"
	ConstraintEnum    = "enum"
	ConstraintEmail   = "email"
)

// custom validator tags
const (
	institutionalCodeTag = "institutional_code"
	enumTagPrefix        = "enum_"
)

// InstitutionalCodePattern is the allowed alphabet for institutional codes
var InstitutionalCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Constraint is a single rule applied to a coerced field value.
// Tag is evaluated with go-playground/validator.
type Constraint struct {
	Name    string   `json:"name"`
	Tag     string   `json:"tag"`
	Pattern string   `json:"pattern,omitempty"`
	Min     *int     `json:"min,omitempty"`
	Max     *int     `json:"max,omitempty"`
	Values  []string `json:"values,omitempty"`
}

func (c Constraint) String() string {
	switch c.Name {
	case ConstraintPattern:
		return fmt.Sprintf("pattern %s", c.Pattern)
	case ConstraintRange:
		lo, hi := "", ""
		if c.Min != nil {
			lo = fmt.Sprint(*c.Min)
		}
		if c.Max != nil {
			hi = fmt.Sprint(*c.Max)
		}
		return fmt.Sprintf("range[%s,%s]", lo, hi)
	case ConstraintEnum:
		return fmt.Sprintf("one of {%s}", strings.Join(c.Values, ", "))
	}
	return c.Name
}

// FieldSpec describes one field of an entity
type FieldSpec struct {
	Name       string      `json:"name"`
	Kind       FieldKind   `json:"kind"`
	Required   bool        `json:"required"`
	Constraint *Constraint `json:"constraint,omitempty"`
	Default    any         `json:"default,omitempty"`
}

// Options configures the enumerations a registry validates against
type Options struct {
	InstitutionTypes []string
	Provinces        []string
	Now              func() time.Time
}

// Registry holds the schemas for every entity kind. It is safe for
// concurrent use once constructed.
type Registry struct {
	institutionTypes []string
	provinces        []string
	recipients       []string
	now              func() time.Time
	validate         *validator.Validate
}

// NewRegistry builds a registry, falling back to the ownership taxonomy and
// the full province reference list when options are empty.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		institutionTypes: opts.InstitutionTypes,
		provinces:        opts.Provinces,
		now:              opts.Now,
		validate:         validator.New(),
	}
	if len(r.institutionTypes) == 0 {
		r.institutionTypes = OwnershipTypes
	}
	if len(r.provinces) == 0 {
		r.provinces = ProvinceNames()
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.recipients = append([]string{RecipientsAll, RecipientsPendingMOU}, r.provinces...)

	_ = r.validate.RegisterValidation(institutionalCodeTag, func(fl validator.FieldLevel) bool {
		return InstitutionalCodePattern.MatchString(fl.Field().String())
	})
	for name, values := range map[string][]string{
		"institution_type":  r.institutionTypes,
		"province":          r.provinces,
		"unit_status":       UnitStatuses,
		"training_type":     TrainingTypes,
		"training_mode":     TrainingModes,
		"notification_type": NotificationTypes,
		"recipients":        r.recipients,
	} {
		_ = r.validate.RegisterValidation(enumTagPrefix+name, func(fl validator.FieldLevel) bool {
			return slices.Contains(values, fl.Field().String())
		})
	}
	return r
}

// InstitutionTypes returns the configured institution taxonomy
func (r *Registry) InstitutionTypes() []string {
	return slices.Clone(r.institutionTypes)
}

// Provinces returns the provinces accepted by this registry
func (r *Registry) Provinces() []string {
	return slices.Clone(r.provinces)
}

// Describe returns the field specs of an entity kind, or nil for an unknown kind
func (r *Registry) Describe(kind EntityKind) []FieldSpec {
	switch kind {
	case EntityInstitution:
		return r.institutionFields()
	case EntityTraining:
		return r.trainingFields()
	case EntityNotification:
		return r.notificationFields()
	}
	return nil
}

func (r *Registry) institutionFields() []FieldSpec {
	return []FieldSpec{
		text("institutionName", true),
		{Name: "institutionalCode", Kind: KindString, Required: true, Constraint: &Constraint{
			Name:    ConstraintPattern,
			Tag:     institutionalCodeTag,
			Pattern: InstitutionalCodePattern.String(),
		}},
		enum("institutionType", "institution_type", r.institutionTypes, true),
		{Name: "dateOfDeployment", Kind: KindDate, Required: true},
		{Name: "yearDistributed", Kind: KindNumber, Required: true, Constraint: yearRange(r.now().Year())},
		text("completeAddress", true),
		text("municipality", false),
		enum("province", "province", r.provinces, true),
		text("region", false),
		{Name: "email", Kind: KindString, Required: true, Constraint: &Constraint{Name: ConstraintEmail, Tag: "email"}},
		text("phone", true),
		text("recipientName", true),
		enum("unitStatus", "unit_status", UnitStatuses, true),
		text("statusRemarks", false),
		count("gadMale"),
		count("gadFemale"),
		count("gadOthers"),
		text("gadNotes", false),
		text("mouDocumentPath", false),
	}
}

func (r *Registry) trainingFields() []FieldSpec {
	return []FieldSpec{
		text("institutionName", true),
		{Name: "trainingDate", Kind: KindDate, Required: true},
		enum("province", "province", r.provinces, true),
		text("municipality", false),
		text("trainers", true),
		enum("trainingType", "training_type", TrainingTypes, true),
		enum("trainingMode", "training_mode", TrainingModes, true),
		count("male"),
		count("female"),
		count("others"),
		text("gadNotes", false),
	}
}

func (r *Registry) notificationFields() []FieldSpec {
	return []FieldSpec{
		enum("type", "notification_type", NotificationTypes, true),
		enum("recipients", "recipients", r.recipients, true),
		text("subject", true),
		text("message", true),
	}
}

func text(name string, required bool) FieldSpec {
	return FieldSpec{Name: name, Kind: KindString, Required: required}
}

func enum(name, tag string, values []string, required bool) FieldSpec {
	return FieldSpec{Name: name, Kind: KindEnum, Required: required, Constraint: &Constraint{
		Name:   ConstraintEnum,
		Tag:    enumTagPrefix + tag,
		Values: slices.Clone(values),
	}}
}

// count is an optional non-negative participant counter defaulting to 0
func count(name string) FieldSpec {
	lo := 0
	return FieldSpec{Name: name, Kind: KindNumber, Default: 0, Constraint: &Constraint{
		Name: ConstraintRange,
		Tag:  "gte=0",
		Min:  &lo,
	}}
}

func yearRange(currentYear int) *Constraint {
	lo, hi := 1900, currentYear
	return &Constraint{
		Name: ConstraintRange,
		Tag:  fmt.Sprintf("gte=%d,lte=%d", lo, hi),
		Min:  &lo,
		Max:  &hi,
	}
}
