package dispute

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitKnownVector(t *testing.T) {
	var salt Word
	got := Commit(VoteForPlaintiff, salt)
	again := Commit(VoteForPlaintiff, salt)
	assert.Equal(t, got, again)
	assert.NotEqual(t, got, Commit(VoteForDefendant, salt))
	assert.Len(t, got.String(), 66)
}

func TestCommitIsLegacyKeccakOverVoteAndSalt(t *testing.T) {
	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", keccakOf(nil).String())

	var salt Word
	for i := range salt {
		salt[i] = byte(i)
	}
	want := keccakOf(append([]byte{2}, salt[:]...))
	assert.Equal(t, want, Commit(VoteForDefendant, salt))
}

func TestMatches(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)
	commitment := Commit(VoteForDefendant, salt)

	assert.True(t, Matches(commitment, VoteForDefendant, salt))
	assert.False(t, Matches(commitment, VoteForPlaintiff, salt))

	other := salt
	other[31] ^= 0x01
	assert.False(t, Matches(commitment, VoteForDefendant, other))
}

func TestParseWord(t *testing.T) {
	salt, err := NewSalt()
	require.NoError(t, err)

	parsed, err := ParseWord(salt.String())
	require.NoError(t, err)
	assert.Equal(t, salt, parsed)

	parsed, err = ParseWord(salt.String()[2:])
	require.NoError(t, err)
	assert.Equal(t, salt, parsed)

	_, err = ParseWord("0x1234")
	assert.ErrorIs(t, err, ErrInvalidWord)
	_, err = ParseWord("0x" + string(bytes.Repeat([]byte("zz"), 32)))
	assert.ErrorIs(t, err, ErrInvalidWord)
}

func TestWordText(t *testing.T) {
	var w Word
	w[0] = 0xab
	text, err := w.MarshalText()
	require.NoError(t, err)

	var decoded Word
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, w, decoded)
	assert.False(t, decoded.IsZero())
}

func FuzzRevealRejectsMismatchedSalt(f *testing.F) {
	f.Add([]byte("salt-a"), []byte("salt-b"), uint8(1))
	f.Add([]byte{}, []byte{0}, uint8(2))
	f.Fuzz(func(t *testing.T, a, b []byte, vote uint8) {
		var saltA, saltB Word
		copy(saltA[:], a)
		copy(saltB[:], b)
		v := Vote(vote%2 + 1)
		commitment := Commit(v, saltA)
		if !Matches(commitment, v, saltA) {
			t.Fatal("commitment must open with its own salt")
		}
		if saltA != saltB && Matches(commitment, v, saltB) {
			t.Fatalf("mismatched salt opened commitment: %x vs %x", saltA, saltB)
		}
		if Matches(commitment, otherSide(v), saltA) {
			t.Fatal("opposite vote opened commitment")
		}
	})
}

func otherSide(v Vote) Vote {
	if v == VoteForPlaintiff {
		return VoteForDefendant
	}
	return VoteForPlaintiff
}
