package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (e.g., terminal shared secret)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretManagerAdapter defines the port for retrieving the terminal shared secret
// from a secret management service.
// Path format depends on implementation:
//   - AWS: "nuvei/terminals/{terminal_id}" or full ARN
//   - Vault: "nuvei/terminals/{terminal_id}" under the configured KV mount
//   - Local: file path relative to the base directory
type SecretManagerAdapter interface {
	// GetSecret retrieves a secret by its path/name
	// Returns error if the secret does not exist, is empty, or the backend is unreachable
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
