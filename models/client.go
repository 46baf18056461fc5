package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client represents a pool owner serviced by the company
type Client struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id" bson:"id"`
	Name       string    `gorm:"not null;index" json:"name" bson:"name"`
	Address    string    `gorm:"not null" json:"address" bson:"address"`
	Phone      *string   `json:"phone" bson:"phone,omitempty"`
	Email      *string   `json:"email" bson:"email,omitempty"`
	EmployeeID *string   `gorm:"index;size:36" json:"employee_id" bson:"employee_id"` // assigned employee, not an owner
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// TableName specifies the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// BeforeCreate assigns an id when none was set
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
