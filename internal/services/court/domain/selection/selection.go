// Package selection draws juries from the available pool.
//
// Every source draws uniformly without replacement with a partial
// Fisher-Yates shuffle over a copy of the pool. Sources differ only in where
// the randomness comes from. Deterministic sources hold no mutable state:
// each draw is derived from the source key and the Draw it is asked for, so
// the same case round always seats the same jury.
package selection

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	mrand "math/rand/v2"

	"github.com/zeebo/blake3"
)

// ErrNotEnough indicates the pool is smaller than the requested jury.
var ErrNotEnough = errors.New("not enough jurors in pool")

// Draw identifies the jury being seated.
type Draw struct {
	CaseID uint64
	Round  int
}

func (d Draw) bytes() [16]byte {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], d.CaseID)
	binary.BigEndian.PutUint64(buf[8:], uint64(d.Round))
	return buf
}

// Source selects n distinct members of pool for the given draw.
type Source interface {
	SelectDistinct(d Draw, pool []string, n int) ([]string, error)
}

// uniform returns an integer in [0, n).
type uniform func(n uint64) (uint64, error)

func selectDistinct(pool []string, n int, next uniform) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("jury size must be positive, got %d", n)
	}
	if len(pool) < n {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnough, len(pool), n)
	}
	shuffled := append([]string(nil), pool...)
	for i := 0; i < n; i++ {
		offset, err := next(uint64(len(shuffled) - i))
		if err != nil {
			return nil, err
		}
		j := i + int(offset)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n:n], nil
}

// Crypto draws from the operating system's secure random source. The draw
// is ignored; replay reads the seated jury from the journal.
type Crypto struct{}

// SelectDistinct implements Source.
func (Crypto) SelectDistinct(_ Draw, pool []string, n int) ([]string, error) {
	return selectDistinct(pool, n, func(bound uint64) (uint64, error) {
		v, err := rand.Int(rand.Reader, new(big.Int).SetUint64(bound))
		if err != nil {
			return 0, fmt.Errorf("read random: %w", err)
		}
		return v.Uint64(), nil
	})
}

// Seeded is a deterministic source for tests and simulations.
type Seeded struct {
	seed uint64
}

// NewSeeded creates a PCG-backed source.
func NewSeeded(seed uint64) Seeded {
	return Seeded{seed: seed}
}

// SelectDistinct implements Source.
func (s Seeded) SelectDistinct(d Draw, pool []string, n int) ([]string, error) {
	rng := mrand.New(mrand.NewPCG(
		s.seed^d.CaseID*0x9e3779b97f4a7c15,
		s.seed^0xbf58476d1ce4e5b9^uint64(d.Round),
	))
	return selectDistinct(pool, n, func(bound uint64) (uint64, error) {
		return rng.Uint64N(bound), nil
	})
}

// Beacon derives draws from a blake3 XOF keyed with the secret over the
// case id and round, so any holder of the secret can reproduce every jury.
type Beacon struct {
	key [32]byte
}

// NewBeacon keys the stream with blake3(secret).
func NewBeacon(secret []byte) Beacon {
	return Beacon{key: blake3.Sum256(secret)}
}

// SelectDistinct implements Source.
func (b Beacon) SelectDistinct(d Draw, pool []string, n int) ([]string, error) {
	h, err := blake3.NewKeyed(b.key[:])
	if err != nil {
		return nil, fmt.Errorf("beacon hasher: %w", err)
	}
	input := d.bytes()
	h.Write(input[:])
	stream := h.Digest()
	return selectDistinct(pool, n, func(bound uint64) (uint64, error) {
		return uniformFrom(stream, bound)
	})
}

func uniformFrom(stream io.Reader, bound uint64) (uint64, error) {
	// Reject the tail that would bias the modulo.
	limit := math.MaxUint64 - math.MaxUint64%bound
	var buf [8]byte
	for {
		if _, err := io.ReadFull(stream, buf[:]); err != nil {
			return 0, fmt.Errorf("read beacon stream: %w", err)
		}
		if v := binary.BigEndian.Uint64(buf[:]); v < limit {
			return v % bound, nil
		}
	}
}

// New returns the source named by kind: "crypto", "seeded" or "beacon".
func New(kind, seed string) (Source, error) {
	switch kind {
	case "", "crypto":
		return Crypto{}, nil
	case "seeded":
		var value uint64
		if seed != "" {
			if _, err := fmt.Sscan(seed, &value); err != nil {
				return nil, fmt.Errorf("parse selection seed: %w", err)
			}
		}
		return NewSeeded(value), nil
	case "beacon":
		if seed == "" {
			return nil, errors.New("beacon selection requires a seed")
		}
		return NewBeacon([]byte(seed)), nil
	default:
		return nil, fmt.Errorf("unknown selection source %q", kind)
	}
}
