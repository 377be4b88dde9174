// Package id generates opaque identifiers for requests and invocations.
package id

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// NewID returns a lowercase, unpadded base32 encoding of a random UUIDv4.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(value[:])), nil
}
