package config

import (
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"

	"position-signal-engine/internal/errs"
)

// Secrets holds the credentials the engine needs once configuration
// has loaded: the persisted-store DSNs and the price-source token.
// Resolved from Vault when VaultConfig.Enabled, otherwise left empty;
// nothing fills it from the environment.
type Secrets struct {
	PostgresDSN    string
	RedisAddr      string
	PriceSourceKey string
}

// ResolveSecrets reads the engine's runtime secrets from Vault,
// via a plain Vault KV read. A disabled
// VaultConfig is not an error — it returns empty Secrets, and the
// store DSNs are then taken from StoreConfig as loaded.
func ResolveSecrets(cfg *VaultConfig) (*Secrets, error) {
	if !cfg.Enabled {
		return &Secrets{}, nil
	}

	client, err := vaultapi.NewClient(&vaultapi.Config{Address: cfg.Addr})
	if err != nil {
		return nil, &errs.ConfigError{Field: "vault.addr", Reason: err.Error()}
	}

	secret, err := client.Logical().Read(cfg.Path)
	if err != nil {
		return nil, &errs.ConfigError{Field: "vault.path", Reason: err.Error()}
	}
	if secret == nil || secret.Data == nil {
		return nil, &errs.ConfigError{Field: "vault.path", Reason: fmt.Sprintf("no secret found at %s", cfg.Path)}
	}

	out := &Secrets{}
	if v, ok := secret.Data["postgres_dsn"].(string); ok {
		out.PostgresDSN = v
	}
	if v, ok := secret.Data["redis_addr"].(string); ok {
		out.RedisAddr = v
	}
	if v, ok := secret.Data["price_source_key"].(string); ok {
		out.PriceSourceKey = v
	}
	return out, nil
}
