package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/infra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withDB(func(db *gorm.DB) error {
				if err := infra.RunMigrations(db); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ schema atualizado (%s)\n", db.Dialector.Name())
				return nil
			})
		},
	}
}
