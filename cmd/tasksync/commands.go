package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/dori/tasksync/internal/config"
	"github.com/dori/tasksync/internal/model"
	"github.com/dori/tasksync/internal/state"
)

func addCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Quick add an entry",
		Example: `
tasksync add Buy groceries
tasksync add "Review PR"
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.open()
			if err != nil {
				return err
			}
			defer application.Close()

			st, err := application.LoadState(cmd.Context())
			if err != nil {
				return err
			}

			entry := st.Add(strings.Join(args, " "))
			if err := application.Store.Save(cmd.Context(), st.Entries()); err != nil {
				return fmt.Errorf("failed to save entries: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", entry.Description)
			return nil
		},
	}
}

func listCmd(opts *globalOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the entries",
		Example: `
tasksync list
tasksync list --filter active
tasksync list --filter '#/completed'
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := model.ParseFilter(filter)
			if err != nil {
				return err
			}

			application, err := opts.open()
			if err != nil {
				return err
			}
			defer application.Close()

			st, err := application.LoadState(cmd.Context())
			if err != nil {
				return err
			}
			st.SetFilter(f)

			printEntries(cmd.OutOrStdout(), st)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "all", "Filter (all, active, completed or #/, #/active, #/completed)")
	return cmd
}

// printEntries writes the filtered view as a table. The numbers are the
// filtered indices the interactive list uses.
func printEntries(w io.Writer, st *state.State) {
	bold := color.New(color.Bold)
	done := color.New(color.FgGreen)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 80
	tbl.Wrap = true
	tbl.AddRow(bold.Sprint("#"), bold.Sprint("Done"), bold.Sprint("Description"))
	for i, e := range st.Visible() {
		mark := "[ ]"
		desc := e.Description
		if e.Completed {
			mark = done.Sprint("[x]")
			desc = faint.Sprint(desc)
		}
		tbl.AddRow(i, mark, desc)
	}

	_, _ = fmt.Fprintln(w, tbl)

	items := "items"
	if st.Total() == 1 {
		items = "item"
	}
	_, _ = fmt.Fprintf(w, "\n%d %s left  [%s %s]  %d completed\n",
		st.Total(), items, st.Filter(), st.Filter().Href(), st.TotalCompleted())
}

func pullCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Replace the local entries with the server's",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.open()
			if err != nil {
				return err
			}
			defer application.Close()

			entries, err := application.Remote.FetchEntries(cmd.Context())
			if err != nil {
				return err
			}
			if err := application.Store.Save(cmd.Context(), entries); err != nil {
				return fmt.Errorf("failed to save entries: %w", err)
			}

			application.Logger.Info("pulled entries", "entries", len(entries))
			fmt.Fprintf(cmd.OutOrStdout(), "Pulled %d entries from %s\n", len(entries), application.Remote.TasksURL())
			return nil
		},
	}
}

func pushCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Send the local entries to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.open()
			if err != nil {
				return err
			}
			defer application.Close()

			st, err := application.LoadState(cmd.Context())
			if err != nil {
				return err
			}
			if err := application.Remote.PushEntries(cmd.Context(), st.Entries()); err != nil {
				return err
			}

			application.Logger.Info("pushed entries", "entries", st.Total())
			fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d entries to %s\n", st.Total(), application.Remote.TasksURL())
			return nil
		},
	}
}

func resetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the locally stored entries",
		Long: `Removes the entries stored under the configured key. The next start
begins with an empty list until the startup pull fills it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := opts.open()
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Store.Delete(cmd.Context()); err != nil {
				return fmt.Errorf("failed to delete entries: %w", err)
			}

			application.Logger.Info("local entries deleted", "key", application.Config.Storage.Key)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted local entries for %s\n", application.Config.Storage.Key)
			return nil
		},
	}
}

func configCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	cmd.AddCommand(configInitCmd(opts))
	return cmd
}

func configInitCmd(opts *globalOptions) *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to a config file",
		Long: `Writes the effective configuration (defaults, config files and flags) as
YAML, by default to ~/.config/tasksync/config.yaml.`,
		Example: `
tasksync config init
tasksync --server https://tasks.example.com config init --force
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				if path, err = config.UserConfigPath(); err != nil {
					return err
				}
			} else if path, err = homedir.Expand(path); err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := cfg.SaveToFile(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
