package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lostfound/internal/app"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export items",
}

var exportExcelCmd = &cobra.Command{
	Use:   "excel",
	Short: "Write an .xlsx workbook with one sheet per category",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newApp(cmd, "export excel", app.Options{SkipVaultCheck: true})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		path := filepath.Join(dir, a.Service().ExportFilename())
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}

		if err := a.Service().ExportWorkbook(cmd.Context(), f); err != nil {
			f.Close()
			os.Remove(path)
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", path, err)
		}

		fmt.Printf("Exported to %s\n", path)
		return nil
	},
}

var exportLabelCmd = &cobra.Command{
	Use:   "label ID",
	Short: "Print an HTML label for an item to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "export label", app.Options{SkipVaultCheck: true})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		return a.Service().RenderLabel(cmd.Context(), id, os.Stdout)
	},
}

func init() {
	exportCmd.AddCommand(exportExcelCmd)
	exportCmd.AddCommand(exportLabelCmd)
	exportExcelCmd.Flags().String("dir", ".", "Directory to write the workbook into")
}
