package cli

import (
	"fmt"
	"os"

	"github.com/rogpool/pool-service-api/services"
	"github.com/spf13/cobra"
)

// ImportClientsOptions holds flags for the import-clients command
type ImportClientsOptions struct {
	File       string
	EmployeeID string
	As         string
}

// NewImportClientsCommand creates the import-clients command
func NewImportClientsCommand() *cobra.Command {
	opts := &ImportClientsOptions{}

	cmd := &cobra.Command{
		Use:   "import-clients",
		Short: "Import clients from an .xlsx workbook",
		Long: `Import clients from the first sheet of an .xlsx workbook.

The first row must contain "name" and "address" columns (any letter case);
"phone" and "email" are picked up when present. Rows already registered with
the same name and address are skipped.

Example:
  poolsvc import-clients --file clients.xlsx --employee-id 5f0c...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportClients(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "path to the .xlsx workbook (required)")
	cmd.Flags().StringVar(&opts.EmployeeID, "employee-id", "", "assign every imported client to this user id")
	cmd.Flags().StringVar(&opts.As, "as", "", "administrator username to attribute the import to (default ADMIN_USERNAME)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImportClients(cmd *cobra.Command, opts *ImportClientsOptions) error {
	ctx := cmdContext(cmd)
	cfg, st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	username := opts.As
	if username == "" {
		username = cfg.AdminUsername
	}
	actor, err := st.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("cannot act as %q: %w", username, err)
	}

	f, err := os.Open(opts.File)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var employeeID *string
	if opts.EmployeeID != "" {
		employeeID = &opts.EmployeeID
	}

	importer := services.NewImportService(services.NewClientService(st, st), st)
	result, err := importer.ImportWorkbook(ctx, actor, f, employeeID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Successfully imported %d clients (%d skipped)\n", result.ImportedCount, result.SkippedCount)
	return nil
}
