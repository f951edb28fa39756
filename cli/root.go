// Package cli wires configuration, logging and the platform client into the
// mini-todo commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"mini-todo/config"
)

type App struct {
	v        *viper.Viper
	envFiles []string
}

func NewRootCmd() *cobra.Command {
	app := &App{v: config.New()}

	cmd := &cobra.Command{
		Use:          "mini-todo",
		Short:        "A small to-do list with a hosted platform and a terminal client",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Open the to-do list (logs in first if needed)
  mini-todo

  # Run the platform API against a local SQLite file
  DB_DRIVER=sqlite DSN=todo.db JWT_SECRET=dev PLATFORM_API_KEY=anon mini-todo serve

  # Forget the stored session
  mini-todo logout
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(app.envFiles...)
	}

	fs := cmd.PersistentFlags()
	fs.StringSliceVar(&app.envFiles, "env-file", nil, "Load environment from these files instead of ./.env")
	fs.String("log-level", "info", "Log level (debug|info|warn|error)")
	fs.String("session-file", "", "Where the signed-in session is kept")
	if err := bindFlags(app.v, fs, map[string]string{
		config.KeyLogLevel:    "log-level",
		config.KeySessionFile: "session-file",
	}); err != nil {
		panic(err)
	}

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newAppCmd(app))
	cmd.AddCommand(newLogoutCmd(app))

	return cmd
}

// bindFlags makes each flag override its configuration key when set.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return nil
}
