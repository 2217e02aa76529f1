package cli

import (
	"fmt"

	"backend-yatube/internal/db"
	"backend-yatube/internal/observability"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  "Create every table and index the backend needs. Safe to run repeatedly.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.Deps.LoadConfig()
			q, closeFn, err := opts.Deps.ConnectPostgres(cfg)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer closeFn()

			if err := db.ApplySchema(cmd.Context(), q); err != nil {
				return err
			}
			observability.Logger.Debug("schema applied", "statements", len(db.Schema()))
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d schema statements\n", len(db.Schema()))
			return nil
		},
	}
}
