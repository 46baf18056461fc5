package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poolsvc",
		Short: "Pool maintenance service API",
		Long: `Backend for a pool maintenance business: clients, employees and
service reports behind a REST API.

Configuration is read from the environment, .env.<GO_ENV> and .env.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewCreateUserCommand())
	cmd.AddCommand(NewImportClientsCommand())

	return cmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
