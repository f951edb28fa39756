package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mini-todo/clock"
	"mini-todo/config"
	"mini-todo/logging"
	"mini-todo/platform"
	"mini-todo/tui"
)

func newAppCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "app",
		Short: "Open the to-do list in the terminal (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, app)
		},
	}

	fs := cmd.Flags()
	fs.String("url", "", "Platform base URL")
	fs.String("log-file", "", "Log file")
	if err := bindFlags(app.v, fs, map[string]string{
		config.KeyClientURL: "url",
		config.KeyLogFile:   "log-file",
	}); err != nil {
		panic(err)
	}
	return cmd
}

func runApp(cmd *cobra.Command, app *App) error {
	cfg, err := config.LoadClient(app.v)
	if err != nil {
		return err
	}
	logger, closer, err := logging.NewFile(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	client := platform.New(cfg.PlatformURL, cfg.PlatformKey, platform.NewFileSessions(cfg.SessionFile))
	logger.Info("starting", "platform", cfg.PlatformURL, "session", cfg.SessionFile)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tui.Run(ctx, client, clock.System, logger)
}
