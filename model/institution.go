package model

import (
	"strconv"
	"time"

	"github.com/starbooks/monitoring-api/schema"
)

// UnitStatus is the operational state of a deployed kiosk
type UnitStatus string

const (
	UnitStatusActive   UnitStatus = "Active"
	UnitStatusInactive UnitStatus = "Inactive"
)

// MOUStatus tells whether a signed MOU has been uploaded for an institution
type MOUStatus string

const (
	MOUStatusAvailable MOUStatus = "Available"
	MOUStatusMissing   MOUStatus = "Missing"
)

// Institution is a deployment site (school, university or NGO) that received a kiosk
type Institution struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	InstitutionName   string     `gorm:"type:varchar(255);not null" json:"institutionName"`
	InstitutionalCode string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"institutionalCode"`
	InstitutionType   string     `gorm:"type:varchar(40);not null;index" json:"institutionType"`
	DateOfDeployment  time.Time  `gorm:"type:date;not null" json:"dateOfDeployment"`
	YearDistributed   int        `gorm:"not null;index" json:"yearDistributed"`
	CompleteAddress   string     `gorm:"type:text;not null" json:"completeAddress"`
	Municipality      string     `gorm:"type:varchar(120);index" json:"municipality"`
	Province          string     `gorm:"type:varchar(120);not null;index" json:"province"`
	Region            string     `gorm:"type:varchar(60)" json:"region"`
	Email             string     `gorm:"type:varchar(255);not null" json:"email"`
	Phone             string     `gorm:"type:varchar(60);not null" json:"phone"`
	RecipientName     string     `gorm:"type:varchar(255);not null" json:"recipientName"`
	UnitStatus        UnitStatus `gorm:"type:varchar(20);not null;default:'Active'" json:"unitStatus"`
	StatusRemarks     string     `gorm:"type:text" json:"statusRemarks"`
	GADMale           int        `gorm:"not null;default:0" json:"gadMale"`
	GADFemale         int        `gorm:"not null;default:0" json:"gadFemale"`
	GADOthers         int        `gorm:"not null;default:0" json:"gadOthers"`
	GADNotes          string     `gorm:"type:text" json:"gadNotes"`

	// MOU attachment, set only by an upload
	MOUDocumentPath string     `gorm:"type:text" json:"mouDocumentPath,omitempty"`
	MOUFileName     string     `gorm:"type:varchar(255)" json:"mouFileName,omitempty"`
	MOUFileSize     int64      `gorm:"default:0" json:"mouFileSize,omitempty"`
	MOUUploadedAt   *time.Time `json:"mouUploadedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewInstitution builds an institution from a validated record. The region
// is derived from the province when the record leaves it empty.
func NewInstitution(rec schema.Record) Institution {
	inst := Institution{
		InstitutionName:   rec.String("institutionName"),
		InstitutionalCode: rec.String("institutionalCode"),
		InstitutionType:   rec.String("institutionType"),
		DateOfDeployment:  rec.Time("dateOfDeployment"),
		YearDistributed:   rec.Int("yearDistributed"),
		CompleteAddress:   rec.String("completeAddress"),
		Municipality:      rec.String("municipality"),
		Province:          rec.String("province"),
		Region:            rec.String("region"),
		Email:             rec.String("email"),
		Phone:             rec.String("phone"),
		RecipientName:     rec.String("recipientName"),
		UnitStatus:        UnitStatus(rec.String("unitStatus")),
		StatusRemarks:     rec.String("statusRemarks"),
		GADMale:           rec.Int("gadMale"),
		GADFemale:         rec.Int("gadFemale"),
		GADOthers:         rec.Int("gadOthers"),
		GADNotes:          rec.String("gadNotes"),
	}
	if inst.Region == "" {
		inst.Region = schema.RegionOf(inst.Province)
	}
	return inst
}

// MOUStatus derives the MOU status from the stored document reference
func (i Institution) MOUStatus() MOUStatus {
	if i.MOUDocumentPath != "" {
		return MOUStatusAvailable
	}
	return MOUStatusMissing
}

// GADTotal is the number of GAD participants across all genders
func (i Institution) GADTotal() int {
	return i.GADMale + i.GADFemale + i.GADOthers
}

// FieldValue implements query.Searchable
func (i Institution) FieldValue(field string) string {
	switch field {
	case "name":
		return i.InstitutionName
	case "code":
		return i.InstitutionalCode
	case "province":
		return i.Province
	case "municipality":
		return i.Municipality
	case "region":
		return i.Region
	case "status":
		return string(i.UnitStatus)
	case "year":
		return strconv.Itoa(i.YearDistributed)
	case "type":
		return i.InstitutionType
	case "mou_status":
		return string(i.MOUStatus())
	}
	return ""
}

// MOUAttachment describes an uploaded MOU file
type MOUAttachment struct {
	Path       string
	FileName   string
	FileSize   int64
	UploadedAt time.Time
}

// MOUDocument is the MOU view of an institution
type MOUDocument struct {
	InstitutionID     uint       `json:"institutionId"`
	InstitutionName   string     `json:"institutionName"`
	InstitutionalCode string     `json:"institutionalCode"`
	Province          string     `json:"province"`
	Municipality      string     `json:"municipality"`
	RecipientName     string     `json:"recipientName"`
	DocumentPath      string     `json:"documentPath,omitempty"`
	FileName          string     `json:"fileName,omitempty"`
	FileSize          int64      `json:"fileSize,omitempty"`
	UploadDate        *time.Time `json:"uploadDate,omitempty"`
	Status            MOUStatus  `json:"status"`
}

// NewMOUDocument projects an institution onto its MOU view
func NewMOUDocument(i Institution) MOUDocument {
	return MOUDocument{
		InstitutionID:     i.ID,
		InstitutionName:   i.InstitutionName,
		InstitutionalCode: i.InstitutionalCode,
		Province:          i.Province,
		Municipality:      i.Municipality,
		RecipientName:     i.RecipientName,
		DocumentPath:      i.MOUDocumentPath,
		FileName:          i.MOUFileName,
		FileSize:          i.MOUFileSize,
		UploadDate:        i.MOUUploadedAt,
		Status:            i.MOUStatus(),
	}
}

// FieldValue implements query.Searchable; status is the MOU status
func (d MOUDocument) FieldValue(field string) string {
	switch field {
	case "name":
		return d.InstitutionName
	case "code":
		return d.InstitutionalCode
	case "province":
		return d.Province
	case "municipality":
		return d.Municipality
	case "status":
		return string(d.Status)
	}
	return ""
}
