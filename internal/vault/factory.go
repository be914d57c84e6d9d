package vault

import (
	"context"

	"github.com/cockroachdb/errors"

	"lostfound/internal/config"
	"lostfound/internal/lf"
)

// NewVaultFromConfig creates a SnapshotVault based on the vault config type.
func NewVaultFromConfig(ctx context.Context, cfg config.VaultConfig, clock lf.Clock) (lf.SnapshotVault, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryVault(cfg.Name, clock), nil
	case "s3":
		v, err := NewS3Vault(ctx, cfg.Name, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	case "filesystem":
		if cfg.FSVaultRoot == "" {
			return nil, errors.New("filesystem vault requires fs_vault_root to be set")
		}
		v, err := NewFileSystemVault(cfg.Name, cfg.FSVaultRoot)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, errors.Newf("unknown vault type: %s", cfg.Type)
	}
}
