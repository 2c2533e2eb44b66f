package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/semmidev/yabu/internal/app"
	"github.com/semmidev/yabu/internal/config"
	"github.com/semmidev/yabu/internal/domain"
	"github.com/semmidev/yabu/internal/usecase"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "yabu",
		Short:        "Archive files and directories with deduplication and rotation",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "path to config file")

	root.AddCommand(
		newPresetsCmd(),
		newBackupCmd(),
		newListCmd(),
		newRestoreCmd(),
		newPruneCmd(),
		newDeleteCmd(),
		newDaemonCmd(),
	)
	return root
}

// withApp loads the configuration, builds the App and shuts it down after fn.
func withApp(fn func(a *app.App) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	defer a.Shutdown()

	return fn(a)
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "Show configured presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				presets, err := a.Presets()
				if err != nil {
					return err
				}
				for _, p := range presets {
					fmt.Fprintln(cmd.OutOrStdout(), p.String())
				}
				return nil
			})
		},
	}
}

func newBackupCmd() *cobra.Command {
	var opts usecase.CreateOptions
	var quiet bool

	cmd := &cobra.Command{
		Use:   "backup PRESET",
		Short: "Back up every target of a preset to every destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				out := cmd.OutOrStdout()
				var progress domain.ProgressFunc
				if !quiet {
					progress = func(p domain.Progress) { printProgress(out, p) }
				}

				summary, err := a.Backup(cmd.Context(), args[0], opts, progress)
				if err != nil {
					return err
				}

				for _, b := range summary.Created {
					fmt.Fprintf(out, "\ncreated %s", b.Path)
				}
				fmt.Fprintf(out, "\n%d created, %d unchanged, %d failed\n",
					len(summary.Created), summary.Duplicates, len(summary.Failures))
				for _, err := range summary.Failures {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				}
				if !summary.OK() {
					return errors.New("some backups failed")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "keep the backup even if nothing changed")
	cmd.Flags().BoolVarP(&opts.Keep, "keep", "k", false, "do not delete old backups")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print progress")
	return cmd
}

func newListCmd() *cobra.Command {
	var target, dir string

	cmd := &cobra.Command{
		Use:   "list [PRESET]",
		Short: "List backups of a preset or of a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" && len(args) == 0 {
				return errors.New("a preset name or --dir is required")
			}
			return withApp(func(a *app.App) error {
				var backups []domain.Backup
				var err error
				if dir != "" {
					backups, err = a.ListDirectory(cmd.Context(), dir)
				} else {
					backups, err = a.ListBackups(cmd.Context(), args[0], target)
				}
				for _, b := range backups {
					fmt.Fprintln(cmd.OutOrStdout(), b.String())
				}
				if err != nil && len(backups) > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "only list backups of this target")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "list backups stored in this directory")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	var preset, to string

	cmd := &cobra.Command{
		Use:   "restore ARCHIVE",
		Short: "Replace a target with the contents of a backup",
		Long: "Restore replaces the target entirely: its current contents are deleted first.\n" +
			"Without --to the backup is restored onto its original target, which must belong to --preset.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if preset == "" && to == "" {
				return errors.New("either --preset or --to is required")
			}
			return withApp(func(a *app.App) error {
				b, err := a.Restore(cmd.Context(), preset, args[0], to)
				if err != nil {
					return err
				}
				dest := to
				if dest == "" {
					dest = b.Target
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %s to %s\n", b.Path, dest)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "preset the backup's target must belong to")
	cmd.Flags().StringVar(&to, "to", "", "restore onto this path instead of the original target")
	return cmd
}

func newPruneCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune PRESET",
		Short: "Delete backups beyond each destination's retention count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				backups, err := a.Prune(cmd.Context(), args[0], dryRun)
				verb := "deleted"
				if dryRun {
					verb = "would delete"
				}
				for _, b := range backups {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, b.Path)
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "only show what would be deleted")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ARCHIVE",
		Short: "Delete a single backup archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				b, err := a.DeleteBackup(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", b.Path)
				return nil
			})
		},
	}
}

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled preset backups until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				return a.Run(cmd.Context())
			})
		},
	}
}

func printProgress(w io.Writer, p domain.Progress) {
	if p.Total > 0 {
		fmt.Fprintf(w, "\r[%d/%d] %s\x1b[K", p.Step, p.Total, p.Message)
		return
	}
	fmt.Fprintf(w, "\r%s %s\x1b[K", time.Now().Format(time.TimeOnly), p.Message)
}
