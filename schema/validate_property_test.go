package schema

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var requiredInstitutionFields = []string{
	"institutionName", "institutionalCode", "institutionType", "dateOfDeployment",
	"yearDistributed", "completeAddress", "province", "email", "phone",
	"recipientName", "unitStatus",
}

func provinceGen() gopter.Gen {
	names := ProvinceNames()
	values := make([]interface{}, len(names))
	for i, n := range names {
		values[i] = n
	}
	return gen.OneConstOf(values...)
}

// Property: the reported fields are exactly the dropped required fields, in
// schema order, each as a MissingField
func TestValidateCompletenessProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	r := newTestRegistry()

	properties.Property("every dropped required field is reported once", prop.ForAll(
		func(mask []bool) bool {
			raw := validInstitution()
			var dropped []string
			for i, drop := range mask {
				if drop {
					delete(raw, requiredInstitutionFields[i])
					dropped = append(dropped, requiredInstitutionFields[i])
				}
			}

			_, err := r.Validate(EntityInstitution, raw)
			if len(dropped) == 0 {
				return err == nil
			}
			list, ok := err.(ErrorList)
			if !ok || !reflect.DeepEqual(list.Fields(), dropped) {
				return false
			}
			for _, e := range list {
				if e.Code != MissingField {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(len(requiredInstitutionFields), gen.Bool()),
	))

	properties.TestingRun(t)
}

// Property: Validate(Validate(x)) succeeds with the same record
func TestValidateRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	r := newTestRegistry()

	properties.Property("a validated record re-validates unchanged", prop.ForAll(
		func(code string, year int, province string, male, female, others int) bool {
			raw := validInstitution()
			raw["institutionalCode"] = code
			raw["yearDistributed"] = year
			raw["dateOfDeployment"] = time.Date(year, time.January, 15, 0, 0, 0, 0, time.UTC).Format(DateLayout)
			raw["province"] = province
			raw["gadMale"] = male
			raw["gadFemale"] = female
			raw["gadOthers"] = others

			rec, err := r.Validate(EntityInstitution, raw)
			if err != nil {
				return false
			}
			again, err := r.Validate(EntityInstitution, rec)
			return err == nil && reflect.DeepEqual(rec, again)
		},
		gen.Identifier(),
		gen.IntRange(1900, fixedNow.Year()),
		provinceGen(),
		gen.IntRange(0, 500),
		gen.IntRange(0, 500),
		gen.IntRange(0, 500),
	))

	properties.Property("a code outside the allowed alphabet is one constraint violation", prop.ForAll(
		func(prefix string, bad string) bool {
			raw := validInstitution()
			raw["institutionalCode"] = prefix + bad

			_, err := r.Validate(EntityInstitution, raw)
			list, ok := err.(ErrorList)
			return ok && len(list) == 1 &&
				list[0].Field == "institutionalCode" && list[0].Code == ConstraintViolation
		},
		gen.Identifier(),
		gen.OneConstOf("*", "#", "/", "é", ".", "!"),
	))

	properties.TestingRun(t)
}
