package vault

import (
	"context"
	"path/filepath"
	"testing"

	"lostfound/internal/config"
)

func TestNewVaultFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.VaultConfig
		wantErr bool
	}{
		{
			name: "memory vault",
			cfg:  config.VaultConfig{Type: "memory", Name: "test-memory"},
		},
		{
			name: "filesystem vault",
			cfg:  config.VaultConfig{Type: "filesystem", Name: "test-fs", FSVaultRoot: filepath.Join(t.TempDir(), "backups")},
		},
		{
			name:    "filesystem vault without root",
			cfg:     config.VaultConfig{Type: "filesystem", Name: "test-fs"},
			wantErr: true,
		},
		{
			name:    "s3 vault without bucket",
			cfg:     config.VaultConfig{Type: "s3", Name: "test-s3", S3Region: "eu-central-1"},
			wantErr: true,
		},
		{
			name:    "unknown vault type",
			cfg:     config.VaultConfig{Type: "unknown", Name: "test-unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewVaultFromConfig(context.Background(), tt.cfg, nil)

			if (err != nil) != tt.wantErr {
				t.Fatalf("NewVaultFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if got != nil {
					t.Errorf("NewVaultFromConfig() = %v, want nil on error", got)
				}
				return
			}
			if err := got.ValidateSetup(context.Background()); err != nil {
				t.Errorf("ValidateSetup() error = %v", err)
			}
		})
	}

	t.Run("s3 vault with static credentials", func(t *testing.T) {
		cfg := config.VaultConfig{
			Type:              "s3",
			Name:              "offsite",
			S3Bucket:          "brz-backups",
			S3Prefix:          "lostfound",
			S3Region:          "eu-central-1",
			S3Endpoint:        "http://127.0.0.1:9000",
			S3AccessKeyID:     "test",
			S3SecretAccessKey: "secret",
		}
		got, err := NewVaultFromConfig(context.Background(), cfg, nil)
		if err != nil {
			t.Fatalf("NewVaultFromConfig() error = %v", err)
		}
		s3v, ok := got.(*S3Vault)
		if !ok {
			t.Fatalf("NewVaultFromConfig() = %T, want *S3Vault", got)
		}
		if s3v.key("a.json") != "lostfound/a.json" {
			t.Errorf("key() = %q, want %q", s3v.key("a.json"), "lostfound/a.json")
		}
	})
}
