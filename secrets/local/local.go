package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"solarnode/helper/common"
	"solarnode/secrets"

	"go.uber.org/zap"
)

// LocalSecretsManager is a SecretsManager that stores secrets
// on the local file system, one file per secret
type LocalSecretsManager struct {
	logger *zap.SugaredLogger

	// path is the base directory secrets are stored under
	path string
}

// SecretsManagerFactory implements the factory method for the local secrets manager
func SecretsManagerFactory(
	_ *secrets.SecretsManagerConfig,
	params *secrets.SecretsManagerParams,
) (secrets.SecretsManager, error) {
	path, ok := params.Extra[secrets.Path]
	if !ok {
		return nil, errors.New("no path specified for local secrets manager")
	}

	pathStr, ok := path.(string)
	if !ok {
		return nil, errors.New("invalid path specified for local secrets manager")
	}

	localManager := &LocalSecretsManager{
		logger: params.Logger.Named("local-secrets"),
		path:   pathStr,
	}

	if err := localManager.Setup(); err != nil {
		return nil, err
	}

	return localManager, nil
}

// Setup creates the base secrets directory if it is missing
func (l *LocalSecretsManager) Setup() error {
	if common.DirectoryExists(l.path) {
		return nil
	}

	if err := os.MkdirAll(l.path, common.DirPerms); err != nil {
		return fmt.Errorf("unable to create secrets directory %s: %w", l.path, err)
	}

	return nil
}

// GetSecret gets the local SecretsManager secret by name
func (l *LocalSecretsManager) GetSecret(name string) ([]byte, error) {
	value, err := os.ReadFile(l.secretPath(name))
	if err != nil {
		return nil, fmt.Errorf("unable to read secret %s: %w", name, err)
	}

	return value, nil
}

// SetSecret writes the secret to disk with owner-only permissions
func (l *LocalSecretsManager) SetSecret(name string, value []byte) error {
	if err := os.WriteFile(l.secretPath(name), value, common.SecretPerms); err != nil {
		return fmt.Errorf("unable to write secret %s: %w", name, err)
	}

	return nil
}

// HasSecret checks if the secret is present on disk
func (l *LocalSecretsManager) HasSecret(name string) bool {
	return common.FileExists(l.secretPath(name))
}

// RemoveSecret removes the secret from disk
func (l *LocalSecretsManager) RemoveSecret(name string) error {
	if !l.HasSecret(name) {
		return fmt.Errorf("secret %s not found", name)
	}

	return os.Remove(l.secretPath(name))
}

func (l *LocalSecretsManager) secretPath(name string) string {
	return filepath.Join(l.path, name)
}
