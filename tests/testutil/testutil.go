package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rogpool/pool-service-api/config"
	"github.com/rogpool/pool-service-api/models"
	"github.com/rogpool/pool-service-api/store"
	"github.com/rogpool/pool-service-api/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

// TestPassword is the password given to every user created by CreateTestUser
const TestPassword = "password123"

// RequireTestEnvironmentOrSkip skips the test unless GO_ENV is "test".
// Use this for tests that talk to DATABASE_URL instead of an in-memory store.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test for the duration of the test
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()
	t.Setenv("GO_ENV", "test")
}

// NewTestStore opens a migrated in-memory SQLite store closed at test cleanup
func NewTestStore(t *testing.T) *store.GormStore {
	t.Helper()

	db, err := config.ConnectDatabase("sqlite://:memory:", logger.Silent)
	require.NoError(t, err, "Failed to connect to test database")

	s := store.NewGormStore(db)
	require.NoError(t, s.Migrate(), "Failed to migrate test database")
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// CreateTestUser stores a user whose password is TestPassword
func CreateTestUser(t *testing.T, s store.UserStore, username string, role models.Role) *models.User {
	t.Helper()

	hash, err := utils.HashPassword(TestPassword, 4)
	require.NoError(t, err)

	user := &models.User{Username: username, PasswordHash: hash, Role: role}
	require.NoError(t, s.CreateUser(context.Background(), user), "Failed to create test user")
	return user
}

// CreateTestClient stores a client, optionally assigned to an employee
func CreateTestClient(t *testing.T, s store.ClientStore, name, address string, employee *models.User) *models.Client {
	t.Helper()

	client := &models.Client{Name: name, Address: address}
	if employee != nil {
		client.EmployeeID = &employee.ID
	}
	require.NoError(t, s.CreateClient(context.Background(), client), "Failed to create test client")
	return client
}

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
