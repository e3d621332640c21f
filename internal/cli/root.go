// Package cli implements tillerctl, the operator command line for the
// Tillerstead admin server
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/app"
	"github.com/tillerstead/admin/internal/config"
	"github.com/tillerstead/admin/internal/logging"
)

// RootOptions holds global flags for all commands
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DataDir string
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the tillerctl root command
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tillerctl",
		Short: "Tillerstead admin tooling",
		Long:  "Manage users, API keys, audit logs, calculators and projects of a Tillerstead admin data directory.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log service output to stderr")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory (default $DATA_DIR)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewAPIKeyCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewCalcCommand(opts))
	cmd.AddCommand(NewProjectCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// loadConfig reads the environment and applies --data-dir
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
		if os.Getenv("DATABASE_URL") == "" {
			cfg.DatabaseURL = filepath.Join(o.DataDir, "tillerstead-admin.db")
		}
	}
	return cfg, nil
}

// openApp builds the services over the data directory. The caller closes it.
func (o *RootOptions) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.New(cmd.Context(), cfg, o.logger(cfg))
	if err != nil {
		return nil, err
	}
	if a.GeneratedAdminPassword != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Seeded admin account with generated password: %s\n", a.GeneratedAdminPassword)
	}
	return a, nil
}

// logger is silent unless --verbose
func (o *RootOptions) logger(cfg *config.Config) *zap.Logger {
	if o.Verbose {
		return logging.Must(cfg.Environment)
	}
	return zap.NewNop()
}

func (o *RootOptions) printer(cmd *cobra.Command) *Printer {
	return &Printer{Format: o.Format, Writer: cmd.OutOrStdout()}
}
