package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"lostfound/internal/config"
	"lostfound/internal/database"
	"lostfound/internal/lf"
	"lostfound/internal/scheduler"
	"lostfound/internal/server"
	"lostfound/internal/vault"
)

// Options tunes how an LFApp is built.
type Options struct {
	// Command names the CLI command being run (e.g. "serve", "backup create").
	Command string
	// Verbose enables debug-level log records.
	Verbose bool
	// SkipVaultCheck avoids the vault round trip for commands that never
	// touch snapshots.
	SkipVaultCheck bool
}

// LFApp is the application layer between the CLI and LFService.
// It constructs all dependencies from config and owns their lifecycle.
type LFApp struct {
	cfg          *config.Config
	store        *database.SQLiteStore
	vault        lf.SnapshotVault
	service      *lf.LFService
	logger       lf.Logger
	logFile      *os.File
	inv          *Invocation
	autoInterval time.Duration
}

// NewLFApp creates a fully wired LFApp from the given config.
// The caller must call Close when done.
func NewLFApp(ctx context.Context, cfg *config.Config, opts Options) (*LFApp, error) {
	retention, err := cfg.Backup.RetentionDuration()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Backup.OperationTimeoutDuration()
	if err != nil {
		return nil, err
	}
	interval, err := cfg.Backup.AutoIntervalDuration()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Backup.LoadLocation()
	if err != nil {
		return nil, err
	}

	clock := lf.RealClock{}
	inv := NewInvocation(opts.Command, clock.Now())

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	sl, logFile, err := newLogger(cfg.LogDir, inv.ID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	v, err := vault.NewVaultFromConfig(ctx, cfg.Vault, clock)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	if !opts.SkipVaultCheck {
		if err := v.ValidateSetup(ctx); err != nil {
			logFile.Close()
			return nil, fmt.Errorf("vault %s is not usable: %w", cfg.Vault.Name, err)
		}
	}

	store, err := database.NewItemStoreFromConfig(cfg.Database, cfg.InstanceID)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating item store: %w", err)
	}
	if err := store.CheckMigrations(); err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	databaseName := cfg.DatabaseName
	if databaseName == "" {
		databaseName = config.DefaultDatabaseName
	}

	svc := lf.NewLFService(store, v, logger, clock, lf.UUIDGenerator{}, lf.Options{
		DatabaseName:     databaseName,
		Retention:        retention,
		OperationTimeout: timeout,
		Location:         loc,
	})

	logger.Debug("application ready", "command", inv.Command, "store", store.Path(), "vault", cfg.Vault.Name)

	return &LFApp{
		cfg:          cfg,
		store:        store,
		vault:        v,
		service:      svc,
		logger:       logger,
		logFile:      logFile,
		inv:          inv,
		autoInterval: interval,
	}, nil
}

// Service returns the wired LFService.
func (a *LFApp) Service() *lf.LFService {
	return a.service
}

// Logger returns the application logger.
func (a *LFApp) Logger() lf.Logger {
	return a.logger
}

// Serve runs the HTTP server and the automatic backup loop until ctx is
// cancelled or the server fails.
func (a *LFApp) Serve(ctx context.Context) error {
	srv := server.New(a.service, a.logger)
	auto := &scheduler.AutoBackup{
		Snapshots: a.service,
		Interval:  a.autoInterval,
		Logger:    a.logger,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx, a.cfg.Server.ListenAddr())
	})
	g.Go(func() error {
		auto.Run(ctx)
		return nil
	})
	return g.Wait()
}

// Finish records the outcome of the command in the log.
func (a *LFApp) Finish(err error) {
	a.inv.Finish(time.Now(), err)
	if err != nil {
		a.logger.Error("command failed", "command", a.inv.Command, "duration", a.inv.Duration().String(), "error", err)
		return
	}
	a.logger.Info("command finished", "command", a.inv.Command, "duration", a.inv.Duration().String())
}

// Close releases the store and the log file.
func (a *LFApp) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
