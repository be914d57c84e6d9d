package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"lostfound/internal/app"
	"lostfound/internal/lf"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage snapshots of the item store",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Take a snapshot",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		auto, _ := cmd.Flags().GetBool("auto")
		kind := lf.KindManual
		if auto {
			kind = lf.KindAutomatic
		}

		a, err := newApp(cmd, "backup create", app.Options{})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		meta, err := a.Service().CreateSnapshot(cmd.Context(), kind)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		if !meta.Created {
			fmt.Printf("Snapshot %s already exists for this minute\n", meta.Filename)
			return nil
		}
		fmt.Printf("Created %s (%d record(s), %d bytes)\n", meta.Filename, meta.RecordCount, meta.Size)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "backup list", app.Options{})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		snapshots, err := a.Service().ListSnapshots(cmd.Context())
		if err != nil {
			return err
		}

		if len(snapshots) == 0 {
			fmt.Println("No snapshots.")
			return nil
		}
		for _, m := range snapshots {
			fmt.Printf("%-40s  %-9s  %s  %8d\n",
				m.Filename,
				m.Kind,
				m.CreatedAt.Format("2006-01-02 15:04:05"),
				m.Size,
			)
		}
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore FILENAME",
	Short: "Replace every item with the contents of a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		filename := args[0]
		yes, _ := cmd.Flags().GetBool("yes")

		if !yes {
			warn := color.New(color.FgRed, color.Bold).SprintFunc()
			fmt.Fprintln(os.Stderr, warn("Restoring replaces ALL current items with the snapshot contents."))
			ok, err := confirm(os.Stdin, os.Stderr, fmt.Sprintf("Restore %s?", filename))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Restore cancelled.")
				return nil
			}
		}

		a, err := newApp(cmd, "backup restore", app.Options{})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		result, err := a.Service().RestoreSnapshot(cmd.Context(), filename)
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}

		fmt.Printf("Restored %d record(s) from %s\n", result.RecordCount, result.Filename)
		return nil
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete FILENAME",
	Short: "Delete a snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "backup delete", app.Options{})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		if err := a.Service().DeleteSnapshot(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete automatic snapshots older than the retention period",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "backup prune", app.Options{})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		n, err := a.Service().PruneAutomaticSnapshots(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Pruned %d snapshot(s)\n", n)
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupDeleteCmd)
	backupCmd.AddCommand(backupPruneCmd)

	backupCreateCmd.Flags().Bool("auto", false, "Take an automatic snapshot (deduplicated per minute, triggers pruning)")
	backupRestoreCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
