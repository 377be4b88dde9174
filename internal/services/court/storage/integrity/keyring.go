package integrity

import (
	"crypto/hkdf"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrSignatureMismatch indicates a chain hash signature that does not verify.
var ErrSignatureMismatch = errors.New("signature mismatch")

// Keyring stores root HMAC keys and the active key id.
type Keyring struct {
	keys        map[string][]byte
	activeKeyID string
}

// NewKeyring constructs a keyring for HMAC signing and verification.
func NewKeyring(keys map[string][]byte, activeKeyID string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("hmac keys are required")
	}
	activeKeyID = strings.TrimSpace(activeKeyID)
	if activeKeyID == "" {
		return nil, fmt.Errorf("active hmac key id is required")
	}
	if _, ok := keys[activeKeyID]; !ok {
		return nil, fmt.Errorf("active hmac key id %q is not configured", activeKeyID)
	}
	return &Keyring{keys: keys, activeKeyID: activeKeyID}, nil
}

// ActiveKeyID returns the configured signing key id.
func (k *Keyring) ActiveKeyID() string {
	if k == nil {
		return ""
	}
	return k.activeKeyID
}

// SignChainHash signs a chain hash with the active key, returning the
// signature and the key id used.
func (k *Keyring) SignChainHash(courtID, chainHash string) (string, string, error) {
	if k == nil {
		return "", "", fmt.Errorf("hmac keyring is not configured")
	}
	key, err := k.deriveKey(k.activeKeyID, courtID)
	if err != nil {
		return "", "", err
	}
	return hmacSHA256Hex(key, chainHash), k.activeKeyID, nil
}

// VerifyChainHash validates a chain hash signature made by any key in the ring.
func (k *Keyring) VerifyChainHash(courtID, chainHash, signature, keyID string) error {
	if k == nil {
		return fmt.Errorf("hmac keyring is not configured")
	}
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return fmt.Errorf("signature key id is required")
	}
	key, err := k.deriveKey(keyID, courtID)
	if err != nil {
		return err
	}
	expected := hmacSHA256Hex(key, chainHash)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

func (k *Keyring) deriveKey(keyID, courtID string) ([]byte, error) {
	rootKey, ok := k.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("hmac key id %q is unknown", keyID)
	}
	courtID = strings.TrimSpace(courtID)
	if courtID == "" {
		return nil, fmt.Errorf("court id is required")
	}
	key, err := hkdf.Key(sha256.New, rootKey, nil, "court:"+courtID, 32)
	if err != nil {
		return nil, fmt.Errorf("derive court key: %w", err)
	}
	return key, nil
}

func hmacSHA256Hex(key []byte, value string) string {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}
