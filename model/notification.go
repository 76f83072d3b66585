package model

import (
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/starbooks/monitoring-api/schema"
)

// NotificationStatus of a dispatched notification
type NotificationStatus string

// NotificationStatusSent is the only status a stored notification can have
const NotificationStatusSent NotificationStatus = "Sent"

// Notification is a message sent to one province or a recipient group.
// History is append-only.
type Notification struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	Type           string             `gorm:"type:varchar(40);not null;index" json:"type"`
	Recipients     string             `gorm:"type:varchar(120);not null;index" json:"recipients"`
	Subject        string             `gorm:"type:varchar(255);not null" json:"subject"`
	Message        string             `gorm:"type:text;not null" json:"message"`
	SentDate       time.Time          `gorm:"not null;index" json:"sentDate"`
	Status         NotificationStatus `gorm:"type:varchar(20);not null" json:"status"`
	RecipientCount int                `gorm:"not null;default:0" json:"recipientCount"`
	Channel        string             `gorm:"type:varchar(20)" json:"channel"`
	SentBy         string             `gorm:"type:varchar(60)" json:"sentBy,omitempty"`

	// Metadata holds the resolved recipient institutions
	Metadata  datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NewNotification builds an unsent notification from a validated record
func NewNotification(rec schema.Record) Notification {
	return Notification{
		Type:       rec.String("type"),
		Recipients: rec.String("recipients"),
		Subject:    rec.String("subject"),
		Message:    rec.String("message"),
	}
}

// NotificationRecipient is one resolved addressee stored in Metadata
type NotificationRecipient struct {
	InstitutionID   uint   `json:"institutionId"`
	InstitutionName string `json:"institutionName"`
	Email           string `json:"email"`
	Province        string `json:"province"`
}

// FieldValue implements query.Searchable
func (n Notification) FieldValue(field string) string {
	switch field {
	case "name":
		return n.Subject
	case "province":
		return n.Recipients
	case "status":
		return string(n.Status)
	case "type":
		return n.Type
	case "year":
		if n.SentDate.IsZero() {
			return ""
		}
		return strconv.Itoa(n.SentDate.Year())
	case "message":
		return n.Message
	}
	return ""
}
