package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied by NewConfig and by the accessors when a value is missing.
const (
	DefaultDatabaseName     = "lostfound"
	DefaultAutoInterval     = 10 * time.Minute
	DefaultRetention        = 24 * time.Hour
	DefaultOperationTimeout = 2 * time.Minute
	DefaultServerAddr       = ":8080"
)

// Config represents the main configuration for lostfound.
type Config struct {
	InstanceID   string         `toml:"instance_id"`
	DatabaseName string         `toml:"database_name"`
	BaseDir      string         `toml:"base_dir"`
	LogDir       string         `toml:"log_dir"`
	Database     DatabaseConfig `toml:"database"`
	Vault        VaultConfig    `toml:"vault"`
	Backup       BackupConfig   `toml:"backup"`
	Server       ServerConfig   `toml:"server"`
}

// VaultConfig represents configuration for the snapshot vault.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "filesystem", "memory" or "s3"
	Name string `toml:"name"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // for S3-compatible services

	// Static credentials; when empty the default AWS credential chain is used.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
}

// DatabaseConfig represents configuration for the item store.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// BackupConfig holds snapshot scheduling and retention settings.
// Durations use time.ParseDuration syntax ("10m", "24h").
type BackupConfig struct {
	AutoInterval     string `toml:"auto_interval,omitempty"`
	Retention        string `toml:"retention,omitempty"`
	OperationTimeout string `toml:"operation_timeout,omitempty"`
	Location         string `toml:"location,omitempty"` // IANA zone for snapshot names; empty means local
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `toml:"addr,omitempty"`
}

// AutoIntervalDuration returns the automatic snapshot interval.
func (b BackupConfig) AutoIntervalDuration() (time.Duration, error) {
	return parseDuration("auto_interval", b.AutoInterval, DefaultAutoInterval)
}

// RetentionDuration returns how long automatic snapshots are kept.
func (b BackupConfig) RetentionDuration() (time.Duration, error) {
	return parseDuration("retention", b.Retention, DefaultRetention)
}

// OperationTimeoutDuration returns the bound on a single snapshot operation.
func (b BackupConfig) OperationTimeoutDuration() (time.Duration, error) {
	return parseDuration("operation_timeout", b.OperationTimeout, DefaultOperationTimeout)
}

// LoadLocation returns the configured time zone.
func (b BackupConfig) LoadLocation() (*time.Location, error) {
	if b.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(b.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid backup location %q: %w", b.Location, err)
	}
	return loc, nil
}

func parseDuration(field, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid backup %s %q: %w", field, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("backup %s must be positive, got %q", field, value)
	}
	return d, nil
}

// ListenAddr returns the configured address or the default.
func (s ServerConfig) ListenAddr() string {
	if s.Addr == "" {
		return DefaultServerAddr
	}
	return s.Addr
}

// NewConfig creates a new Config with a local SQLite store and a filesystem
// vault under baseDir.
func NewConfig(instanceID, baseDir string) *Config {
	return &Config{
		InstanceID:   instanceID,
		DatabaseName: DefaultDatabaseName,
		BaseDir:      baseDir,
		LogDir:       filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Vault: VaultConfig{
			Type:        "filesystem",
			Name:        "local",
			FSVaultRoot: filepath.Join(baseDir, "backups"),
		},
		Backup: BackupConfig{
			AutoInterval:     DefaultAutoInterval.String(),
			Retention:        DefaultRetention.String(),
			OperationTimeout: DefaultOperationTimeout.String(),
		},
		Server: ServerConfig{Addr: DefaultServerAddr},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
