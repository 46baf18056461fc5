package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rogpool/pool-service-api/models"
	"gorm.io/gorm"
)

// GormStore keeps records in a relational database through gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the tables for all models
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&models.User{}, &models.Client{}, &models.ServiceReport{})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return translateGormError(err)
	}
	return translateGormError(sqlDB.PingContext(ctx))
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Users

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	return translateGormError(s.db.WithContext(ctx).Create(user).Error)
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &user, nil
}

func (s *GormStore) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username ASC").Find(&users).Error; err != nil {
		return nil, translateGormError(err)
	}
	return users, nil
}

func (s *GormStore) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(s.db.WithContext(ctx), &models.User{}, id)
}

// Clients

func (s *GormStore) CreateClient(ctx context.Context, client *models.Client) error {
	return translateGormError(s.db.WithContext(ctx).Create(client).Error)
}

func (s *GormStore) GetClient(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	if err := s.db.WithContext(ctx).First(&client, "id = ?", id).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &client, nil
}

func (s *GormStore) ListClients(ctx context.Context, filter ClientFilter) ([]models.Client, error) {
	query := s.db.WithContext(ctx).Order("name ASC")
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}

	var clients []models.Client
	if err := query.Find(&clients).Error; err != nil {
		return nil, translateGormError(err)
	}
	return clients, nil
}

func (s *GormStore) DeleteClient(ctx context.Context, id string) error {
	return deleteByID(s.db.WithContext(ctx), &models.Client{}, id)
}

// Reports

func (s *GormStore) CreateReport(ctx context.Context, report *models.ServiceReport) error {
	return translateGormError(s.db.WithContext(ctx).Create(report).Error)
}

func (s *GormStore) GetReport(ctx context.Context, id string) (*models.ServiceReport, error) {
	var report models.ServiceReport
	if err := s.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &report, nil
}

func (s *GormStore) ListReports(ctx context.Context, filter ReportFilter) ([]models.ServiceReport, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}

	var reports []models.ServiceReport
	if err := query.Find(&reports).Error; err != nil {
		return nil, translateGormError(err)
	}
	return reports, nil
}

func (s *GormStore) SaveReport(ctx context.Context, report *models.ServiceReport) error {
	// Select("*") writes zero values too, so the row mirrors the struct exactly
	result := s.db.WithContext(ctx).
		Model(&models.ServiceReport{}).
		Where("id = ?", report.ID).
		Select("*").
		Updates(report)
	if result.Error != nil {
		return translateGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeleteReport(ctx context.Context, id string) error {
	return deleteByID(s.db.WithContext(ctx), &models.ServiceReport{}, id)
}

func deleteByID(db *gorm.DB, model interface{}, id string) error {
	result := db.Delete(model, "id = ?", id)
	if result.Error != nil {
		return translateGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// translateGormError maps driver errors onto the store sentinels
func translateGormError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}

	// Fallback for drivers that do not translate constraint errors
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique constraint") {
		return ErrDuplicate
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) ||
		strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "database is closed") {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
