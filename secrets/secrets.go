package secrets

import (
	"go.uber.org/zap"
)

// SecretsManagerType defines the secrets manager type
type SecretsManagerType string

const (
	// Local pertains to the local FS secrets manager
	Local SecretsManagerType = "local"
)

// Define constant secrets names
const (
	// APIToken is the authentication token shared by the node
	// process and the companion API process. The name doubles as the
	// on-disk file name the node expects inside its data directory.
	APIToken = "algod.token"
)

// Define constant factory params
const (
	// Path is the path to the base working directory
	Path = "path"
)

// SecretsManager defines the base public interface that all
// secrets manager implementations should have
type SecretsManager interface {
	// Setup performs secret manager-specific setup
	Setup() error

	// GetSecret gets the secret by name
	GetSecret(name string) ([]byte, error)

	// SetSecret sets the secret to a provided value
	SetSecret(name string, value []byte) error

	// HasSecret checks if the secret is present
	HasSecret(name string) bool

	// RemoveSecret removes the secret from storage
	RemoveSecret(name string) error
}

// SecretsManagerParams defines the configuration params for the secrets manager
type SecretsManagerParams struct {
	// Logger object
	Logger *zap.SugaredLogger

	// Extra contains additional data needed for the secrets manager to function
	Extra map[string]interface{}
}

// SecretsManagerConfig is the configuration that gets
// written to a single secrets manager config file
type SecretsManagerConfig struct {
	Type SecretsManagerType `json:"type" yaml:"type"`

	// Extra contains additional parameters for the secrets manager
	Extra map[string]interface{} `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// SecretsManagerFactory is the factory method for secrets managers
type SecretsManagerFactory func(
	config *SecretsManagerConfig,
	params *SecretsManagerParams,
) (SecretsManager, error)
