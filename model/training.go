package model

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/starbooks/monitoring-api/schema"
)

// Training is a kiosk orientation or refresher session held for an institution
type Training struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	InstitutionName string    `gorm:"type:varchar(255);not null;index" json:"institutionName"`
	TrainingDate    time.Time `gorm:"type:date;not null;index" json:"trainingDate"`
	Province        string    `gorm:"type:varchar(120);not null;index" json:"province"`
	Municipality    string    `gorm:"type:varchar(120)" json:"municipality"`
	Trainers        string    `gorm:"type:text;not null" json:"trainers"`
	TrainingType    string    `gorm:"type:varchar(20);not null" json:"trainingType"`
	TrainingMode    string    `gorm:"type:varchar(20);not null" json:"trainingMode"`
	Male            int       `gorm:"not null;default:0" json:"male"`
	Female          int       `gorm:"not null;default:0" json:"female"`
	Others          int       `gorm:"not null;default:0" json:"others"`
	GADNotes        string    `gorm:"type:text" json:"gadNotes"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewTraining builds a training from a validated record
func NewTraining(rec schema.Record) Training {
	return Training{
		InstitutionName: rec.String("institutionName"),
		TrainingDate:    rec.Time("trainingDate"),
		Province:        rec.String("province"),
		Municipality:    rec.String("municipality"),
		Trainers:        rec.String("trainers"),
		TrainingType:    rec.String("trainingType"),
		TrainingMode:    rec.String("trainingMode"),
		Male:            rec.Int("male"),
		Female:          rec.Int("female"),
		Others:          rec.Int("others"),
		GADNotes:        rec.String("gadNotes"),
	}
}

// Total is the participant count; it is derived, never stored
func (t Training) Total() int {
	return t.Male + t.Female + t.Others
}

// MarshalJSON adds the derived total to the wire form
func (t Training) MarshalJSON() ([]byte, error) {
	type plain Training
	return json.Marshal(struct {
		plain
		Total int `json:"total"`
	}{plain(t), t.Total()})
}

// FieldValue implements query.Searchable; status is the training mode
func (t Training) FieldValue(field string) string {
	switch field {
	case "name":
		return t.InstitutionName
	case "province":
		return t.Province
	case "municipality":
		return t.Municipality
	case "type":
		return t.TrainingType
	case "status":
		return t.TrainingMode
	case "year":
		if t.TrainingDate.IsZero() {
			return ""
		}
		return strconv.Itoa(t.TrainingDate.Year())
	case "trainers":
		return t.Trainers
	}
	return ""
}
