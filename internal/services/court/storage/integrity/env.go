package integrity

import (
	"fmt"
	"strings"

	"github.com/louisbranch/decicourt/internal/platform/config"
)

// Config holds the journal signing keys. Keys takes precedence over Key and
// lists comma-separated id=secret pairs so old signatures keep verifying
// after a rotation.
type Config struct {
	Key   string `env:"DECICOURT_EVENT_HMAC_KEY"`
	Keys  string `env:"DECICOURT_EVENT_HMAC_KEYS"`
	KeyID string `env:"DECICOURT_EVENT_HMAC_KEY_ID" envDefault:"v1"`
}

// Enabled reports whether any signing key is configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Key) != "" || strings.TrimSpace(c.Keys) != ""
}

// KeyringFromEnv loads the keyring from the environment.
func KeyringFromEnv() (*Keyring, error) {
	cfg, err := config.Load[Config]()
	if err != nil {
		return nil, err
	}
	return KeyringFromConfig(cfg)
}

// KeyringFromConfig builds a keyring from cfg.
func KeyringFromConfig(cfg Config) (*Keyring, error) {
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		keyID = "v1"
	}
	keySpec := strings.TrimSpace(cfg.Keys)
	if keySpec == "" {
		raw := strings.TrimSpace(cfg.Key)
		if raw == "" {
			return nil, fmt.Errorf("DECICOURT_EVENT_HMAC_KEY is required")
		}
		return NewKeyring(map[string][]byte{keyID: []byte(raw)}, keyID)
	}

	keys := make(map[string][]byte)
	for _, entry := range strings.Split(keySpec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, value, ok := strings.Cut(entry, "=")
		id, value = strings.TrimSpace(id), strings.TrimSpace(value)
		if !ok || id == "" || value == "" {
			return nil, fmt.Errorf("invalid DECICOURT_EVENT_HMAC_KEYS entry %q", id)
		}
		keys[id] = []byte(value)
	}
	return NewKeyring(keys, keyID)
}
