// Package commands implements the CLI commands for the launchpad launcher.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/launchpad/internal/app"
	"go.trai.ch/launchpad/internal/build"
	"go.trai.ch/launchpad/internal/core/domain"
)

// CLI represents the command line interface for launchpad.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	onJSON  func(bool)
}

// Application represents the application logic interface.
type Application interface {
	Launch(ctx context.Context, opts app.LaunchOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:   "launchpad",
		Short: "Verify, install, build and launch a desktop application",
		Long: `launchpad prepares a project and starts its application.

Without a mode flag the project's environment is verified, dependencies are
installed, stale build targets are rebuilt and the packaged application is
started and supervised until it exits.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	flags := rootCmd.Flags()
	flags.BoolP("dev", "d", false, "Start the development server instead of the packaged app")
	flags.BoolP("fast", "f", false, "Skip environment checks, dependency install and build")
	flags.BoolP("check", "c", false, "Only run the full environment diagnosis")
	flags.BoolP("watch", "w", false, "Warn when sources change while the app is running")
	flags.String("config", "", "Path to the configuration file (default: discover launchpad.yaml)")
	rootCmd.MarkFlagsMutuallyExclusive("dev", "fast", "check")

	rootCmd.PersistentFlags().Bool("json", false, "Write logs as JSON")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		jsonLogs, err := cmd.Flags().GetBool("json")
		if err != nil {
			return err
		}
		if c.onJSON != nil {
			c.onJSON(jsonLogs)
		}
		return nil
	}
	rootCmd.RunE = c.runLaunch

	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) runLaunch(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	dev, _ := flags.GetBool("dev")
	fast, _ := flags.GetBool("fast")
	check, _ := flags.GetBool("check")
	watch, _ := flags.GetBool("watch")
	configPath, _ := flags.GetString("config")

	mode := domain.ModeProduction
	switch {
	case dev:
		mode = domain.ModeDevelopment
	case fast:
		mode = domain.ModeFast
	case check:
		mode = domain.ModeCheck
	}

	return c.app.Launch(cmd.Context(), app.LaunchOptions{
		Mode:       mode,
		ConfigPath: configPath,
		Watch:      watch,
	})
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetJSONHook registers fn to receive the value of the --json flag before any
// command runs.
func (c *CLI) SetJSONHook(fn func(bool)) {
	c.onJSON = fn
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
