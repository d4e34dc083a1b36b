// Command tasksync is a terminal task list that keeps a sync server up to
// date with everything you do.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dori/tasksync/internal/app"
	"github.com/dori/tasksync/internal/config"
	"github.com/dori/tasksync/internal/logging"
	"github.com/dori/tasksync/internal/ui"
	"github.com/dori/tasksync/internal/ui/theme"
)

var (
	version = "0.1.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the flags every command shares
type globalOptions struct {
	configPath string
	overrides  config.Overrides
}

// load resolves the configuration for one command run
func (o *globalOptions) load() (*config.Config, error) {
	return config.NewLoader(logging.Discard()).Load(o.configPath, o.overrides)
}

// open loads the configuration and starts the application
func (o *globalOptions) open() (*app.App, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "tasksync",
		Short: "A terminal task list that syncs to a server",
		Long: `tasksync keeps a task list on disk, pulls it from the sync server once at
startup and pushes the whole list back on a fixed interval.

Run without a command to start the interactive list.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	flags.StringVar(&opts.overrides.ServerURL, "server", "", "Sync server base URL")
	flags.DurationVar(&opts.overrides.Interval, "interval", 0, "Push interval (e.g. 5s)")
	flags.StringVar(&opts.overrides.DataDir, "data-dir", "", "Directory for the store, lock and log")
	flags.StringVar(&opts.overrides.Backend, "backend", "", "Storage backend (sqlite, diskv)")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.overrides.Theme, "theme", "", "Theme (nord, dracula, gruvbox, catppuccin)")
	cmd.Flags().BoolVar(&opts.overrides.NoPull, "no-pull", false, "Skip the startup pull")

	cmd.AddCommand(
		addCmd(opts),
		listCmd(opts),
		pullCmd(opts),
		pushCmd(opts),
		resetCmd(opts),
		configCmd(opts),
		versionCmd(),
	)

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tasksync v%s\n", version)
		},
	}
}

func runTUI(ctx context.Context, opts *globalOptions) error {
	application, err := opts.open()
	if err != nil {
		return err
	}
	defer application.Close()

	if t, ok := theme.ByName(application.Config.UI.Theme); ok {
		theme.SetTheme(t)
	} else {
		application.Logger.Warn("unknown theme, using default",
			"theme", application.Config.UI.Theme,
			"default", theme.Current.Theme.Name)
	}

	eng, err := application.NewEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	p := tea.NewProgram(
		ui.NewRootModel(eng),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	start := time.Now()
	_, err = p.Run()
	application.Logger.Info("tasksync stopped", "uptime", time.Since(start).Round(time.Second), "entries", len(eng.Entries()))
	return err
}
