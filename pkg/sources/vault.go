package sources

import (
	"context"

	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// VaultConfig holds configuration for connecting to HashiCorp Vault
type VaultConfig struct {
	Address   string `yaml:"address"`
	Token     string `yaml:"token"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// Validate checks if the VaultConfig has all required fields set
func (v VaultConfig) Validate() error {
	if v.Address == "" {
		return errors.New("Vault address is required")
	}
	if v.Token == "" {
		return errors.New("Vault token is required")
	}
	if v.Path == "" {
		return errors.New("Vault path is required")
	}
	return nil
}

// CreateClient creates and configures a Vault client from this config.
func (v VaultConfig) CreateClient() (*api.Client, error) {
	if err := v.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid Vault configuration")
	}

	config := api.DefaultConfig()
	config.Address = v.Address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Vault client")
	}

	client.SetToken(v.Token)
	if v.Namespace != "" {
		client.SetNamespace(v.Namespace)
	}
	return client, nil
}

// logicalReader is the part of *api.Logical the loader needs.
type logicalReader interface {
	ReadWithContext(ctx context.Context, path string) (*api.Secret, error)
}

// VaultLoader reads every key stored at one Vault path.
// Supports both KV v1 and KV v2 secret engines.
type VaultLoader struct {
	logical logicalReader
	path    string
}

// NewVaultLoader creates a loader for path
//
// Parameters:
//   - client: Configured Vault API client
//   - path: The Vault path to read (e.g., "secret/data/myapp")
func NewVaultLoader(client *api.Client, path string) *VaultLoader {
	return &VaultLoader{logical: client.Logical(), path: path}
}

// Load implements Loader.
func (v *VaultLoader) Load(ctx context.Context) (map[string]string, error) {
	secret, err := v.logical.ReadWithContext(ctx, v.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read secret from Vault path %q", v.path)
	}

	if secret == nil || secret.Data == nil {
		return nil, errors.Errorf("no secret found at Vault path %q", v.path)
	}

	// KV v2 nests the payload under "data"
	data := secret.Data
	if nested, exists := secret.Data["data"]; exists && nested != nil {
		dataMap, ok := nested.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("unexpected data format in KV v2 secret at %q", v.path)
		}
		data = dataMap
	}

	values := stringValues(data)

	log.Debug().
		Str("vault_path", v.path).
		Int("keys", len(values)).
		Msg("Retrieved secrets from Vault")
	return values, nil
}

// Name implements Loader.
func (v *VaultLoader) Name() string {
	return "Vault"
}
