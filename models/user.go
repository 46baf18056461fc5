package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the access level of a user
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleEmployee      Role = "employee"
)

// ParseRole validates a role name. "admin" is accepted as an alias.
func ParseRole(s string) (Role, error) {
	switch s {
	case string(RoleAdministrator), "admin":
		return RoleAdministrator, nil
	case string(RoleEmployee):
		return RoleEmployee, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User represents an account that can log in (administrator or employee)
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id" bson:"id"`
	Username     string    `gorm:"uniqueIndex;not null;size:191" json:"username" bson:"username"` // case-sensitive
	PasswordHash string    `gorm:"not null" json:"-" bson:"password_hash"`
	Role         Role      `gorm:"not null;default:'employee'" json:"role" bson:"role"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an id when none was set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsAdministrator reports whether the user has unrestricted access
func (u *User) IsAdministrator() bool {
	return u.Role == RoleAdministrator
}
