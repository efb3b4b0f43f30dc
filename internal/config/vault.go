package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"resumeforge/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool         `mapstructure:"enabled"`
	Address   string       `mapstructure:"address"`
	Token     string       `mapstructure:"token"`
	TokenFile string       `mapstructure:"tokenFile"`
	Namespace string       `mapstructure:"namespace"`
	Secrets   VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets names the KVv2 paths secrets are read from. Empty paths are skipped.
type VaultSecrets struct {
	APIKeys  string `mapstructure:"apiKeys"`  // key "keys": comma-separated server API keys
	AIKey    string `mapstructure:"aiKey"`    // key "api_key": model provider key
	TLSCerts string `mapstructure:"tlsCerts"` // keys "cert", "key", "ca": PEM content
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// secretReader is the slice of the Vault API the loaders need
type secretReader interface {
	Read(path string) (*api.Secret, error)
}

// VaultClient reads KVv2 secrets
type VaultClient struct {
	logical secretReader
	logger  *errors.Logger
}

// NewVaultClient connects to Vault and checks its health. It returns nil
// without error when Vault is disabled.
func NewVaultClient(cfg VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	token, err := resolveVaultToken(cfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Connected to Vault",
		"address", apiCfg.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{logical: client.Logical(), logger: logger}, nil
}

// resolveVaultToken prefers the inline token over the token file
func resolveVaultToken(cfg VaultConfig) (string, error) {
	token := cfg.Token
	if token == "" && cfg.TokenFile != "" {
		data, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.logical.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	version, err := parseVersionValue(metadata["version"], path)
	if err != nil {
		return nil, err
	}

	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue accepts the shapes the Vault JSON decoder produces
func parseVersionValue(raw any, path string) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, raw)
	}
}

// GetStringSecret retrieves a string value from a Vault secret
func (vc *VaultClient) GetStringSecret(path, key string) (string, error) {
	secret, err := vc.GetSecretV2(path)
	if err != nil {
		return "", err
	}
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}

	vc.logger.Debug("Secret retrieved from Vault", "path", path, "key", key, "masked_value", maskSecret(str))
	return str, nil
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "Failed to initialize Vault client", err)
	}
	return applySecrets(client, config, logger)
}

func applySecrets(client *VaultClient, config *Config, logger *errors.Logger) error {
	paths := config.Vault.Secrets

	if paths.APIKeys != "" {
		raw, err := client.GetStringSecret(paths.APIKeys, "keys")
		if err != nil {
			return fmt.Errorf("failed to load API keys from vault: %w", err)
		}
		if keys := splitList(raw); len(keys) > 0 {
			config.Server.APIKeys = keys
			logger.Info("API keys loaded from Vault", "count", len(keys))
		} else {
			logger.Warn("No API keys found in Vault", "path", paths.APIKeys)
		}
	}

	if paths.AIKey != "" {
		key, err := client.GetStringSecret(paths.AIKey, "api_key")
		if err != nil {
			return fmt.Errorf("failed to load AI API key from vault: %w", err)
		}
		if key != "" {
			config.AI.APIKey = key
			logger.Info("AI API key loaded from Vault", "provider", config.AI.Provider)
		}
	}

	if paths.TLSCerts != "" {
		secret, err := client.GetSecretV2(paths.TLSCerts)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificates from vault: %w", err)
		}
		loaded := applyTLSContent(&config.Server.TLS, secret)
		logger.Info("TLS certificates loaded from Vault", "certificates_loaded", loaded)
	}

	return nil
}

// applyTLSContent copies PEM content into tls and clears the matching file
// paths so the content wins. It returns how many fields were set.
func applyTLSContent(tls *TLSConfig, secret *VaultSecret) int {
	targets := []struct {
		key     string
		content *string
		file    *string
	}{
		{"cert", &tls.CertContent, &tls.CertFile},
		{"key", &tls.KeyContent, &tls.KeyFile},
		{"ca", &tls.CAContent, &tls.CAFile},
	}

	count := 0
	for _, t := range targets {
		if pem, ok := secret.Data[t.key].(string); ok && pem != "" {
			*t.content = pem
			*t.file = ""
			count++
		}
	}
	return count
}
