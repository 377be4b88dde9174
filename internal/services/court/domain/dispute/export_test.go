package dispute

import "golang.org/x/crypto/sha3"

func keccakOf(data []byte) Word {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	var out Word
	copy(out[:], h.Sum(nil))
	return out
}
