package types

import "time"

// NodeKind distinguishes a leaf row from an internal row in the persisted
// node table, which is content-addressed and keyed by hash.
type NodeKind string

const (
	NodeLeaf     NodeKind = "leaf"
	NodeInternal NodeKind = "internal"
)

// MerkleNode is one row of the persisted Merkle node graph. Leaves carry a
// SeqNo; internal nodes carry left/right child hashes and a height. The
// Store does not fill PayloadRef: a leaf's canonical-encoded
// ReviewedEncounter bytes are read through NodeRepo.LeafCanonical.
type MerkleNode struct {
	Hash       [32]byte
	Kind       NodeKind
	SeqNo      *uint64 // leaves only
	Left       *[32]byte
	Right      *[32]byte
	PayloadRef []byte // leaves only: canonical-encoded ReviewedEncounter
	Height     int
}

// SyncWatermark records what the local log believes a named remote peer has
// acknowledged: the (root, N) pair from the peer's last successful Ack.
type SyncWatermark struct {
	RemoteID string
	Root     [32]byte
	NLeaves  uint64
	AckedAt  time.Time
}

// AliasOverride is a per-clinic alias consulted before the built-in map.
type AliasOverride struct {
	Alias     string
	Canonical string
}
