package model

import (
	"strings"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"type:varchar(254)" json:"email"`
	FirstName    string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName     string    `gorm:"type:varchar(150)" json:"last_name"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	IsStaff      bool      `gorm:"not null" json:"is_staff"`
	IsSuperuser  bool      `gorm:"not null" json:"is_superuser"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	DateJoined   time.Time `gorm:"autoCreateTime" json:"date_joined"`

	FullName string `gorm:"-" json:"full_name"`
	Role     Role   `gorm:"-" json:"role,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName falls back to the username when no name parts are set.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u *User) IsAdmin() bool {
	return u.IsSuperuser || u.IsStaff
}
