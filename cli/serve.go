package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rogpool/pool-service-api/config"
	"github.com/rogpool/pool-service-api/router"
	"github.com/rogpool/pool-service-api/services"
	"github.com/rogpool/pool-service-api/store"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Starting Pool Maintenance API server...")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("Failed to close datastore: %v", err)
		}
	}()

	if store.IsOffline(st) {
		log.Println("Running in degraded mode: reads return empty lists, writes fail with 503")
	} else if err := seedUsers(ctx, cfg, st); err != nil {
		return err
	}

	rdb := config.NewRedisClient(cfg.RedisURL)
	if rdb != nil {
		defer rdb.Close()
	}

	opts := router.Options{
		Config:    cfg,
		Store:     st,
		Redis:     rdb,
		Publisher: newPublisher(cfg),
	}
	if cfg.MediaEnabled() {
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			log.Printf("Media storage disabled: %v", err)
		} else {
			opts.S3 = s3Service
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server is running on http://localhost:%s", cfg.Port)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

// seedUsers creates the configured administrator and any users from the seed
// file. Existing accounts are left untouched.
func seedUsers(ctx context.Context, cfg *config.Config, st store.Store) error {
	seeds, err := config.LoadSeedUsers(cfg.SeedUsersFile)
	if err != nil {
		return err
	}
	if cfg.AdminPassword != "" {
		seeds = append([]config.SeedUser{{
			Username: cfg.AdminUsername,
			Password: cfg.AdminPassword,
			Role:     "administrator",
		}}, seeds...)
	} else {
		log.Println("ADMIN_PASSWORD not set, skipping administrator seed")
	}

	users := services.NewUserService(st, services.NewTokenService(cfg.JWTSecret, nil), cfg.BcryptCost)
	for _, seed := range seeds {
		created, err := users.EnsureUser(ctx, services.NewUserInput{
			Username: seed.Username,
			Password: seed.Password,
			Role:     seed.Role,
		})
		if err != nil {
			return fmt.Errorf("failed to seed user %q: %w", seed.Username, err)
		}
		if created {
			log.Printf("Seeded user %q (%s)", seed.Username, seed.Role)
		}
	}
	return nil
}

func newPublisher(cfg *config.Config) services.EventPublisher {
	if cfg.RabbitMQURL == "" {
		return services.NoopPublisher{}
	}
	log.Printf("Publishing report events to queue %q", cfg.ReportEventsQueue)
	return services.NewAMQPPublisher(cfg.RabbitMQURL, cfg.ReportEventsQueue)
}
