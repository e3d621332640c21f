package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tillerstead/admin/internal/app"
	"github.com/tillerstead/admin/internal/logging"
)

// NewServeCommand runs the admin HTTP server in the foreground
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			log, err := logging.New(cfg.Environment)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.GeneratedAdminPassword != "" {
				log.Warn("seeded admin account with a generated password; change it after first login",
					zap.String("password", a.GeneratedAdminPassword))
			}
			return a.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default $ADMIN_PORT)")
	return cmd
}
