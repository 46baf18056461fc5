package store

import (
	"context"
	"fmt"
	"log"

	"github.com/rogpool/pool-service-api/config"
)

// Open connects to the backend named by cfg.DatabaseURL and prepares its schema.
// When the backend is unreachable and cfg.AllowDegraded is set, an Offline
// store is returned instead of an error.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	backend, err := config.DetectBackend(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	s, err := open(ctx, cfg, backend)
	if err == nil {
		return s, nil
	}
	if cfg.AllowDegraded {
		log.Printf("Datastore unavailable, continuing in degraded mode: %v", err)
		return Offline{Reason: err}, nil
	}
	return nil, err
}

func open(ctx context.Context, cfg *config.Config, backend config.Backend) (Store, error) {
	if backend == config.BackendMongo {
		return NewMongoStore(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	}

	db, err := config.ConnectDatabase(cfg.DatabaseURL, cfg.GormLogLevel())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	gs := NewGormStore(db)
	if err := gs.Ping(ctx); err != nil {
		_ = gs.Close()
		return nil, err
	}
	if err := gs.Migrate(); err != nil {
		_ = gs.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Println("Database migration completed successfully")
	return gs, nil
}

// IsOffline reports whether s is the degraded stand-in
func IsOffline(s Store) bool {
	_, ok := s.(Offline)
	return ok
}
