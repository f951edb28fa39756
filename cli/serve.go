package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mini-todo/config"
	"mini-todo/logging"
	"mini-todo/server"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the platform API (identity, items and settings)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer(app.v)
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg, logger)
		},
	}

	fs := cmd.Flags()
	fs.String("addr", ":3002", "Listen address")
	fs.String("db-driver", "mysql", "Database driver (mysql|sqlite)")
	fs.String("dsn", "", "Database DSN")
	if err := bindFlags(app.v, fs, map[string]string{
		config.KeyAddr:     "addr",
		config.KeyDBDriver: "db-driver",
		config.KeyDSN:      "dsn",
	}); err != nil {
		panic(err)
	}
	return cmd
}
