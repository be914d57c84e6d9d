package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"lostfound/internal/app"
	"lostfound/internal/config"
	"lostfound/internal/lf"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var verbose bool

// newApp reads the config and creates an LFApp. The caller must defer finish.
// command identifies the CLI command being run (e.g. "backup create").
func newApp(cmd *cobra.Command, command string, opts app.Options) (*app.LFApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	opts.Command = command
	opts.Verbose = verbose
	a, err := app.NewLFApp(cmd.Context(), cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// finish logs the command outcome and closes the app. Use as
// defer finish(a, &err) in RunE functions with a named error result.
func finish(a *app.LFApp, errp *error) {
	a.Finish(*errp)
	if err := a.Close(); err != nil && *errp == nil {
		*errp = err
	}
}

var rootCmd = &cobra.Command{
	Use:          "lostfound",
	Short:        "Lost and found item tracker",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults.BaseDir)
		if name, _ := cmd.Flags().GetString("database-name"); name != "" {
			cfg.DatabaseName = name
		}

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Instance ID:   %s\n", cfg.InstanceID)
		fmt.Printf("Database name: %s\n", cfg.DatabaseName)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Database:      %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Vault:         %s (%s)\n", cfg.Vault.Name, cfg.Vault.Type)
		fmt.Printf("Server:        %s\n", cfg.Server.ListenAddr())
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and automatic backups",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "serve", app.Options{})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		return a.Serve(cmd.Context())
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View backup operation history",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "history", app.Options{SkipVaultCheck: true})
		if err != nil {
			return err
		}
		defer finish(a, &err)

		ops, err := a.Service().GetHistory(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No backup operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-16s  %s  %s  %s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				statusLabel(op.Status),
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug records")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configInitCmd.Flags().String("database-name", "", "Logical database name written into snapshots")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(itemCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", lf.DefaultHistoryLimit, "Maximum number of operations to show")
}
