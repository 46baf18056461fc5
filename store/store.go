// Package store persists users, clients and service reports.
//
// Every operation reads or writes a single record; there are no
// multi-record transactions. Implementations translate driver errors into
// ErrNotFound, ErrDuplicate and ErrUnavailable so callers never depend on
// a particular backend.
package store

import (
	"context"
	"errors"

	"github.com/rogpool/pool-service-api/models"
)

var (
	// ErrNotFound is returned when no record matches the identifier
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field already exists
	ErrDuplicate = errors.New("duplicate record")
	// ErrUnavailable is returned when the datastore cannot be reached
	ErrUnavailable = errors.New("datastore unavailable")
)

// ClientFilter narrows a client listing. A nil EmployeeID means every client.
type ClientFilter struct {
	EmployeeID *string
}

// ReportFilter narrows a report listing. A nil EmployeeID means every report.
type ReportFilter struct {
	EmployeeID *string
}

// UserStore holds credentials and roles
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// ClientStore holds client records. Listings are sorted by name ascending.
type ClientStore interface {
	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id string) (*models.Client, error)
	ListClients(ctx context.Context, filter ClientFilter) ([]models.Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// ReportStore holds service reports. Listings are sorted by created_at descending.
type ReportStore interface {
	CreateReport(ctx context.Context, report *models.ServiceReport) error
	GetReport(ctx context.Context, id string) (*models.ServiceReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]models.ServiceReport, error)
	// SaveReport replaces the whole stored document (last write wins)
	SaveReport(ctx context.Context, report *models.ServiceReport) error
	DeleteReport(ctx context.Context, id string) error
}

// Store is the full persistence surface used by the server
type Store interface {
	UserStore
	ClientStore
	ReportStore
	Ping(ctx context.Context) error
	Close() error
}
