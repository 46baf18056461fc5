package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReportStatus is the lifecycle state of a service report
type ReportStatus string

const (
	StatusReported   ReportStatus = "reported"
	StatusScheduled  ReportStatus = "scheduled"
	StatusInProgress ReportStatus = "in_progress"
	StatusCompleted  ReportStatus = "completed"
)

// ParseReportStatus rejects anything outside the four lifecycle states.
// Any role with write access may move a report between any two of them.
func ParseReportStatus(s string) (ReportStatus, error) {
	switch st := ReportStatus(s); st {
	case StatusReported, StatusScheduled, StatusInProgress, StatusCompleted:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Priority is how soon the client expects a visit
type Priority string

const (
	PriorityUrgent   Priority = "URGENT"
	PrioritySameWeek Priority = "SAME WEEK"
	PriorityNextWeek Priority = "NEXT WEEK"
	PriorityNormal   Priority = "NORMAL"
)

// ParsePriority validates a priority. Empty input means NORMAL.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case PriorityUrgent, PrioritySameWeek, PriorityNextWeek, PriorityNormal:
		return p, nil
	case "":
		return PriorityNormal, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}

// ModificationEntry is one append-only record of who changed a report and what
type ModificationEntry struct {
	ModifiedBy     string    `json:"modified_by" bson:"modified_by"`
	ModifiedByRole Role      `json:"modified_by_role" bson:"modified_by_role"`
	ModifiedAt     time.Time `json:"modified_at" bson:"modified_at"`
	Changes        []string  `json:"changes" bson:"changes"`
}

// ServiceReport represents a maintenance request for a client's pool
type ServiceReport struct {
	ID string `gorm:"primaryKey;size:36" json:"id" bson:"id"`

	// Snapshot of the client at creation time, never re-synced
	ClientID      string `gorm:"not null;index;size:36" json:"client_id" bson:"client_id"`
	ClientName    string `gorm:"not null" json:"client_name" bson:"client_name"`
	ClientAddress string `json:"client_address" bson:"client_address"`

	// Set only when an employee authored the report
	EmployeeID   *string `gorm:"index;size:36" json:"employee_id" bson:"employee_id"`
	EmployeeName *string `json:"employee_name" bson:"employee_name"`

	Description string                      `gorm:"type:text;not null" json:"description" bson:"description"`
	Priority    Priority                    `gorm:"not null;default:'NORMAL'" json:"priority" bson:"priority"`
	Photos      datatypes.JSONSlice[string] `json:"photos" bson:"photos"`
	Videos      datatypes.JSONSlice[string] `json:"videos" bson:"videos"`
	Status      ReportStatus                `gorm:"not null;default:'reported';index" json:"status" bson:"status"`

	TotalCost   float64 `json:"total_cost" bson:"total_cost"`
	PartsCost   float64 `json:"parts_cost" bson:"parts_cost"`
	GrossProfit float64 `json:"gross_profit" bson:"gross_profit"`

	EmployeeNotes string `gorm:"type:text" json:"employee_notes" bson:"employee_notes"`
	AdminNotes    string `gorm:"type:text" json:"admin_notes" bson:"admin_notes"`

	RequestDate    time.Time  `json:"request_date" bson:"request_date"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at" bson:"created_at"`
	LastModified   time.Time  `json:"last_modified" bson:"last_modified"`
	CompletionDate *time.Time `json:"completion_date" bson:"completion_date"`

	ModificationHistory datatypes.JSONSlice[ModificationEntry] `json:"modification_history" bson:"modification_history"`
}

// TableName specifies the table name for the ServiceReport model
func (ServiceReport) TableName() string {
	return "service_reports"
}

// BeforeCreate assigns an id when none was set
func (r *ServiceReport) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// AuthoredBy reports whether the given user is the employee who filed the report
func (r *ServiceReport) AuthoredBy(userID string) bool {
	return r.EmployeeID != nil && *r.EmployeeID == userID
}
