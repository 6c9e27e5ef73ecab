// Package syncproto implements the three-message Merkle sync protocol:
// Hello, Nodes, Ack. It reconciles a local append-only Merkle log with a
// remote one by exchanging only the subtrees the remote is missing.
package syncproto

// ProtocolVersion is carried on every message. A version mismatch is the
// transport's concern to surface; the engine itself does not negotiate.
const ProtocolVersion = 1

// Phase tags which of the three message exchanges an error occurred in,
// so the host can retry Hello without replaying an already-verified
// Nodes batch.
type Phase string

const (
	PhaseHello Phase = "hello"
	PhaseNodes Phase = "nodes"
	PhaseAck   Phase = "ack"
)

// HelloRequest is the initiating side's opening message: its current
// root and leaf count.
type HelloRequest struct {
	Version   int
	LocalRoot [32]byte
	LocalN    uint64
}

// HelloResponse is the remote's reply: its own root/count, and the list
// of node hashes it needs from the local side to catch up. Divergent is
// set instead when the two histories cannot be reconciled by simple
// extension.
type HelloResponse struct {
	Version    int
	RemoteRoot [32]byte
	RemoteN    uint64
	Missing    [][32]byte
	Divergent  bool
}

// NodePayload is one requested node's raw bytes: either a leaf's
// canonical encounter encoding, or an internal node's left/right hash
// pair, tagged by kind so the remote knows how to re-derive the hash.
type NodePayload struct {
	Hash      [32]byte
	IsLeaf    bool
	Canonical []byte   // set when IsLeaf
	Left      [32]byte // set when !IsLeaf
	Right     [32]byte // set when !IsLeaf
}

// NodesRequest carries the batch of nodes the remote asked for in Hello.
type NodesRequest struct {
	Version int
	Nodes   []NodePayload
}

// NodesResponse reports whether the remote accepted the whole batch.
// Verification failure on any single node fails the batch atomically —
// there is no partial acceptance.
type NodesResponse struct {
	Version int
	Ok      bool
	Error   string
}

// AckMessage is the remote's final message: its root and leaf count
// after ingesting the Nodes batch. The local side verifies NewRoot
// against its own tree before recording the watermark — there is no
// corresponding wire message back; a mismatch simply fails the sync.
type AckMessage struct {
	Version int
	NewRoot [32]byte
	NewN    uint64
}
