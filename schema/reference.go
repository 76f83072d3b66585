package schema

import "strings"

// Region groups the provinces a regional office coordinates
type Region struct {
	Name      string   `json:"name"`
	Code      string   `json:"code"`
	Provinces []string `json:"provinces"`
}

// Regions is the fixed province reference list used by forms and filters
var Regions = []Region{
	{
		Name:      "Ilocos Region",
		Code:      "Region I",
		Provinces: []string{"Ilocos Norte", "Ilocos Sur", "La Union", "Pangasinan"},
	},
	{
		Name:      "Cordillera Administrative Region",
		Code:      "CAR",
		Provinces: []string{"Abra", "Apayao", "Benguet", "Ifugao", "Kalinga", "Mountain Province"},
	},
	{
		Name:      "Cagayan Valley",
		Code:      "Region II",
		Provinces: []string{"Batanes", "Cagayan", "Isabela", "Nueva Vizcaya", "Quirino"},
	},
}

// Institution type taxonomies found across form variants.
var (
	OwnershipTypes = []string{"Public", "Private", "NGO"}
	LevelTypes     = []string{"Elementary", "Secondary"}
)

const (
	TaxonomyOwnership = "ownership"
	TaxonomyLevel     = "level"
)

// Symbolic notification recipient groups
const (
	RecipientsAll        = "all"
	RecipientsPendingMOU = "pending-mou"
)

var (
	UnitStatuses      = []string{"Active", "Inactive"}
	TrainingTypes     = []string{"orientation", "refresher", "advanced"}
	TrainingModes     = []string{"on-site", "virtual"}
	NotificationTypes = []string{"Follow-up", "Announcement", "Reminder", "General", "Acknowledgement"}
)

// Taxonomy returns the institution types for a named taxonomy
func Taxonomy(name string) ([]string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", TaxonomyOwnership:
		return OwnershipTypes, true
	case TaxonomyLevel:
		return LevelTypes, true
	}
	return nil, false
}

// ProvinceNames flattens Regions in reference order
func ProvinceNames() []string {
	var names []string
	for _, r := range Regions {
		names = append(names, r.Provinces...)
	}
	return names
}

// RegionOf returns the region code a province belongs to, or "" when unknown
func RegionOf(province string) string {
	for _, r := range Regions {
		for _, p := range r.Provinces {
			if p == province {
				return r.Code
			}
		}
	}
	return ""
}
