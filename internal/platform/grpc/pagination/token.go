package pagination

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
)

// ErrTokenScope indicates a token minted for a different filter or order.
var ErrTokenScope = errors.New("page token does not match the request")

// Token resumes a sequence-ordered listing after Seq.
type Token struct {
	Seq        uint64 `json:"seq"`
	Descending bool   `json:"desc,omitempty"`
	Scope      string `json:"scope,omitempty"`
}

// NewToken returns a token continuing after seq for the request scope. The
// scope is typically the filter and order_by joined together.
func NewToken(seq uint64, descending bool, scope string) Token {
	return Token{Seq: seq, Descending: descending, Scope: HashScope(scope)}
}

// HashScope returns a short digest of scope, or "" when scope is empty.
func HashScope(scope string) string {
	if scope == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(scope))
	return hex.EncodeToString(sum[:8])
}

// Encode renders t as an opaque URL-safe string.
func Encode(t Token) (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal page token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses raw and checks it was minted for scope and direction.
func Decode(raw string, descending bool, scope string) (Token, error) {
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Token{}, fmt.Errorf("decode page token: %w", err)
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return Token{}, fmt.Errorf("unmarshal page token: %w", err)
	}
	if t.Seq == 0 {
		return Token{}, errors.New("page token has no position")
	}
	if t.Descending != descending || t.Scope != HashScope(scope) {
		return Token{}, ErrTokenScope
	}
	return t, nil
}
