package config

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Backend identifies the persistence engine selected by DATABASE_URL
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMySQL    Backend = "mysql"
	BackendSQLite   Backend = "sqlite"
	BackendMongo    Backend = "mongo"
)

// DetectBackend picks the persistence engine from the URL scheme
func DetectBackend(databaseURL string) (Backend, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return BackendPostgres, nil
	case strings.HasPrefix(databaseURL, "mysql://"):
		return BackendMySQL, nil
	case strings.HasPrefix(databaseURL, "mongodb://"), strings.HasPrefix(databaseURL, "mongodb+srv://"):
		return BackendMongo, nil
	case strings.HasPrefix(databaseURL, "sqlite://"), strings.HasPrefix(databaseURL, "file:"), databaseURL == ":memory:":
		return BackendSQLite, nil
	}
	return "", fmt.Errorf("unsupported DATABASE_URL scheme: %q", redactURL(databaseURL))
}

// ConnectDatabase opens a gorm connection for the relational backends
func ConnectDatabase(databaseURL string, level logger.LogLevel) (*gorm.DB, error) {
	backend, err := DetectBackend(databaseURL)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch backend {
	case BackendPostgres:
		dialector = postgres.Open(databaseURL)
	case BackendMySQL:
		// go-sql-driver expects user:pass@tcp(host:port)/db
		dialector = mysql.Open(strings.TrimPrefix(databaseURL, "mysql://"))
	case BackendSQLite:
		dialector = sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
	default:
		return nil, fmt.Errorf("%s is not a relational backend", backend)
	}

	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if backend == BackendSQLite && strings.Contains(databaseURL, ":memory:") {
		// Every pooled connection would otherwise get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Printf("Database connection established successfully (%s)", backend)
	return db, nil
}

// redactURL hides credentials before a URL is logged or returned in errors
func redactURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	return raw[:scheme+3] + "***" + raw[at:]
}
