package dispute

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrInvalidWord indicates a malformed 32-byte hex value.
var ErrInvalidWord = errors.New("value must be 32 bytes of hex")

// Word is a 32-byte value shown as 0x-prefixed hex.
type Word [32]byte

func (w Word) String() string {
	return "0x" + hex.EncodeToString(w[:])
}

// IsZero reports whether every byte is zero.
func (w Word) IsZero() bool {
	return w == Word{}
}

// MarshalText encodes w as 0x-prefixed hex.
func (w Word) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalText decodes 0x-prefixed or bare hex.
func (w *Word) UnmarshalText(text []byte) error {
	parsed, err := ParseWord(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// ParseWord decodes 64 hex characters with an optional 0x prefix.
func ParseWord(s string) (Word, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 64 {
		return Word{}, ErrInvalidWord
	}
	var w Word
	if _, err := hex.Decode(w[:], []byte(s)); err != nil {
		return Word{}, fmt.Errorf("%w: %v", ErrInvalidWord, err)
	}
	return w, nil
}

// NewSalt returns a random salt.
func NewSalt() (Word, error) {
	var salt Word
	if _, err := rand.Read(salt[:]); err != nil {
		return Word{}, fmt.Errorf("read salt: %w", err)
	}
	return salt, nil
}

// Commit returns keccak256(vote ‖ salt), with the vote as a single byte.
func Commit(vote Vote, salt Word) Word {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte{byte(vote)})
	h.Write(salt[:])
	var out Word
	copy(out[:], h.Sum(nil))
	return out
}

// Matches reports whether vote and salt open commitment.
func Matches(commitment Word, vote Vote, salt Word) bool {
	return Commit(vote, salt) == commitment
}
