package helper

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"solarnode/helper/common"
	"solarnode/secrets"
	"solarnode/secrets/local"
)

// TokenLength is the number of characters in a generated API token
const TokenLength = 64

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// SetupLocalSecretsManager is a helper method for boilerplate local secrets manager setup
func SetupLocalSecretsManager(dataDir string) (secrets.SecretsManager, error) {
	return local.SecretsManagerFactory(
		nil, // Local secrets manager doesn't require a config
		&secrets.SecretsManagerParams{
			Logger: common.NewNullSugaredLogger(),
			Extra: map[string]interface{}{
				secrets.Path: dataDir,
			},
		},
	)
}

// GenerateAPIToken generates a fresh alphanumeric API token
func GenerateAPIToken() (string, error) {
	token := make([]byte, TokenLength)

	for i := range token {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenAlphabet))))
		if err != nil {
			return "", fmt.Errorf("unable to generate API token: %w", err)
		}

		token[i] = tokenAlphabet[idx.Int64()]
	}

	return string(token), nil
}

// InitAPIToken makes sure an API token secret exists, generating one only
// if it is absent. The existing token is always preferred so that clients
// holding it keep working across restarts
func InitAPIToken(secretsManager secrets.SecretsManager) (token string, created bool, err error) {
	if secretsManager.HasSecret(secrets.APIToken) {
		existing, getErr := secretsManager.GetSecret(secrets.APIToken)
		if getErr != nil {
			return "", false, getErr
		}

		return string(existing), false, nil
	}

	token, err = GenerateAPIToken()
	if err != nil {
		return "", false, err
	}

	if setErr := secretsManager.SetSecret(secrets.APIToken, []byte(token)); setErr != nil {
		return "", false, setErr
	}

	return token, true, nil
}

// LoadAPIToken reads the API token if present, returning an empty string otherwise
func LoadAPIToken(secretsManager secrets.SecretsManager) (string, error) {
	if !secretsManager.HasSecret(secrets.APIToken) {
		return "", nil
	}

	token, err := secretsManager.GetSecret(secrets.APIToken)
	if err != nil {
		return "", err
	}

	return string(token), nil
}
