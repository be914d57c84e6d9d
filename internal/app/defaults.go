package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variables that override the default locations.
const (
	EnvConfigPath = "LOSTFOUND_CONFIG_PATH"
	EnvHome       = "LOSTFOUND_HOME"
)

// Defaults holds the default file locations.
type Defaults struct {
	ConfigPath string
	BaseDir    string
	LogDir     string
}

// GetDefaults returns application default paths. LOSTFOUND_CONFIG_PATH
// overrides ~/.config/lostfound.toml and LOSTFOUND_HOME overrides
// ~/.local/share/lostfound.
func GetDefaults() (*Defaults, error) {
	configPath, err := envOrHome(EnvConfigPath, ".config", "lostfound.toml")
	if err != nil {
		return nil, err
	}
	baseDir, err := envOrHome(EnvHome, ".local", "share", "lostfound")
	if err != nil {
		return nil, err
	}

	return &Defaults{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
	}, nil
}

func envOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
