package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevin07696/nuvei-gateway/internal/adapters/ports"
	"go.uber.org/zap"
)

// Source names where the terminal shared secret is kept
type Source string

const (
	SourceEnv   Source = "env"
	SourceFile  Source = "file"
	SourceAWS   Source = "aws"
	SourceVault Source = "vault"
)

// Config selects and configures a secret source
type Config struct {
	Source Source
	// Value is the secret itself for SourceEnv
	Value string
	// Path is a file path, AWS secret name/ARN or Vault KV path
	Path string

	AWSRegion   string
	AWSEndpoint string

	VaultAddress string
	VaultToken   string
	VaultMount   string
}

// staticSecret serves a secret supplied directly through configuration
type staticSecret struct {
	value string
}

func (s staticSecret) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if s.value == "" {
		return nil, fmt.Errorf("shared secret is not set")
	}
	return &ports.Secret{Value: s.value, Version: "static"}, nil
}

// New returns the adapter for cfg.Source
func New(ctx context.Context, cfg Config, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch Source(strings.ToLower(string(cfg.Source))) {
	case "", SourceEnv:
		return staticSecret{value: cfg.Value}, nil

	case SourceFile:
		logger.Warn("Using file secret source - NOT for production use!")
		return NewLocalSecretManager("", logger), nil

	case SourceAWS:
		awsCfg := DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Endpoint = cfg.AWSEndpoint
		return NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	case SourceVault:
		vaultCfg := DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.Token = cfg.VaultToken
		if cfg.VaultMount != "" {
			vaultCfg.MountPath = cfg.VaultMount
		}
		return NewVaultAdapter(ctx, vaultCfg, logger)

	default:
		return nil, fmt.Errorf("unknown secret source: %q", cfg.Source)
	}
}

// ResolveSharedSecret loads the terminal shared secret from the configured source
func ResolveSharedSecret(ctx context.Context, cfg Config, logger *zap.Logger) (string, error) {
	sm, err := New(ctx, cfg, logger)
	if err != nil {
		return "", err
	}

	source := Source(strings.ToLower(string(cfg.Source)))
	if source != "" && source != SourceEnv && cfg.Path == "" {
		return "", fmt.Errorf("a secret path is required for source %q", cfg.Source)
	}

	secret, err := sm.GetSecret(ctx, cfg.Path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve shared secret: %w", err)
	}
	return secret.Value, nil
}
