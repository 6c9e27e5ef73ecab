package merkle

import "crypto/sha256"

// Domain-separation prefixes per §4.6. Mandatory on every hash: without
// them a leaf and an internal node could collide on the same preimage.
const (
	leafPrefix     = 0x00
	internalPrefix = 0x01
)

// LeafHash hashes the canonical encoding of one ReviewedEncounter.
func LeafHash(canonical []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write(canonical)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// InternalHash combines a left and right child hash into their parent.
func InternalHash(left, right [32]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte{internalPrefix})
	h.Write(left[:])
	h.Write(right[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
