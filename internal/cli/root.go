// Package cli implements the unython operator command line: schema
// migration, register sessions and stock bookkeeping without the HTTP API.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fernandosserra/unython/internal/config"
	"github.com/fernandosserra/unython/internal/infra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DatabaseURL string
	UsuarioID   int64
	EventoID    int64
	Verbose     bool
}

// NewRootCommand creates the root command for the unython CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "unython",
		Short:         "Unython - caixa e estoque da ONG",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			level := "warn"
			if opts.Verbose {
				level = "debug"
			}
			infra.SetupLogger(level, false)
			if opts.DatabaseURL == "" {
				opts.DatabaseURL = cfg.DatabaseURL
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "db", "", "database URL (default: DATABASE_URL)")
	cmd.PersistentFlags().Int64Var(&opts.UsuarioID, "usuario", 0, "id of the operator recorded on movements")
	cmd.PersistentFlags().Int64Var(&opts.EventoID, "evento", 0, "event/day id recorded on movements")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewCaixaCommand(opts))
	cmd.AddCommand(NewEstoqueCommand(opts))

	return cmd
}

// withDB opens the database for the duration of fn.
func (o *RootOptions) withDB(fn func(db *gorm.DB) error) error {
	db, err := infra.NewDatabase(o.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return fn(db)
}

func optID(v int64) *int64 {
	if v <= 0 {
		return nil
	}
	return &v
}
