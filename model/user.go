package model

import "time"

// User roles
const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinator"
)

// User is an operator of the monitoring dashboard
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"type:varchar(60);uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"type:text;not null" json:"-"`
	Name         string     `gorm:"type:varchar(255)" json:"name"`
	Role         string     `gorm:"type:varchar(20);not null;default:'coordinator'" json:"role"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsAdmin reports whether the user has the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
