package store

import (
	"context"

	"github.com/rogpool/pool-service-api/models"
)

// Offline stands in for a datastore that could not be reached at startup.
// Every call fails with ErrUnavailable; Reason keeps the original connection error.
type Offline struct {
	Reason error
}

func (o Offline) err() error { return ErrUnavailable }

func (o Offline) Ping(ctx context.Context) error { return o.err() }
func (o Offline) Close() error                   { return nil }

func (o Offline) CreateUser(ctx context.Context, user *models.User) error { return o.err() }
func (o Offline) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return nil, o.err()
}
func (o Offline) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, o.err()
}
func (o Offline) ListUsers(ctx context.Context) ([]models.User, error) { return nil, o.err() }
func (o Offline) DeleteUser(ctx context.Context, id string) error       { return o.err() }

func (o Offline) CreateClient(ctx context.Context, client *models.Client) error { return o.err() }
func (o Offline) GetClient(ctx context.Context, id string) (*models.Client, error) {
	return nil, o.err()
}
func (o Offline) ListClients(ctx context.Context, filter ClientFilter) ([]models.Client, error) {
	return nil, o.err()
}
func (o Offline) DeleteClient(ctx context.Context, id string) error { return o.err() }

func (o Offline) CreateReport(ctx context.Context, report *models.ServiceReport) error {
	return o.err()
}
func (o Offline) GetReport(ctx context.Context, id string) (*models.ServiceReport, error) {
	return nil, o.err()
}
func (o Offline) ListReports(ctx context.Context, filter ReportFilter) ([]models.ServiceReport, error) {
	return nil, o.err()
}
func (o Offline) SaveReport(ctx context.Context, report *models.ServiceReport) error {
	return o.err()
}
func (o Offline) DeleteReport(ctx context.Context, id string) error { return o.err() }
