package cli

import (
	"context"
	"fmt"

	"github.com/rogpool/pool-service-api/config"
	"github.com/rogpool/pool-service-api/services"
	"github.com/rogpool/pool-service-api/store"
	"github.com/spf13/cobra"
)

// CreateUserOptions holds flags for the create-user command
type CreateUserOptions struct {
	Username string
	Password string
	Role     string
}

// NewCreateUserCommand creates the create-user command
func NewCreateUserCommand() *cobra.Command {
	opts := &CreateUserOptions{}

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an administrator or employee account",
		Long: `Create an account directly in the datastore.

Example:
  poolsvc create-user --username employee1 --password s3cret --role employee`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreateUser(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "username (required)")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (required)")
	cmd.Flags().StringVar(&opts.Role, "role", "employee", "administrator or employee")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runCreateUser(cmd *cobra.Command, opts *CreateUserOptions) error {
	ctx := cmdContext(cmd)
	cfg, st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	users := services.NewUserService(st, services.NewTokenService(cfg.JWTSecret, nil), cfg.BcryptCost)
	created, err := users.EnsureUser(ctx, services.NewUserInput{
		Username: opts.Username,
		Password: opts.Password,
		Role:     opts.Role,
	})
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("user %q already exists", opts.Username)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %q\n", opts.Role, opts.Username)
	return nil
}

// openStore loads configuration and connects without degraded fallback
func openStore(ctx context.Context) (*config.Config, store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.AllowDegraded = false

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open datastore: %w", err)
	}
	return cfg, st, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
