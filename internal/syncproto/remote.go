package syncproto

import (
	"context"

	"github.com/clinistack/vetcore/internal/merkle"
	"github.com/clinistack/vetcore/internal/types"
	"github.com/clinistack/vetcore/internal/verr"
)

// Remote is an in-process RemotePeer backed by its own Merkle log. The
// `sync` CLI subcommand pairs two local Stores through it; a networked
// host would implement RemotePeer over its own transport instead.
type Remote struct {
	tree *merkle.Tree
	repo merkle.NodeRepo

	// seenLeaves makes Nodes idempotent for the lifetime of this Remote:
	// replaying the same batch skips leaves already folded in rather
	// than re-deriving (and re-validating) the frontier a second time.
	// It does not survive process restart; a replay against a fresh
	// Remote over the same repo is instead backstopped by the repo's
	// unique constraint on merkle_leaves.hash, and by Engine.Sync only
	// ever proposing the remote_N..local_N catch-up range in the first
	// place.
	seenLeaves map[[32]byte]bool
}

// NewRemote wraps repo as a sync peer.
func NewRemote(repo merkle.NodeRepo) *Remote {
	return &Remote{tree: merkle.New(repo), repo: repo, seenLeaves: map[[32]byte]bool{}}
}

// Hello reports this Remote's root/N and whether req describes a
// divergent history. The list of explicitly-named missing hashes is
// left empty in the common catch-up case — see engine.go's Sync for why.
func (r *Remote) Hello(ctx context.Context, req HelloRequest) (HelloResponse, error) {
	root, n, err := r.repo.Root(ctx)
	if err != nil {
		return HelloResponse{}, verr.Wrap("syncproto.Remote.Hello", verr.IO, err)
	}

	resp := HelloResponse{Version: ProtocolVersion, RemoteRoot: root, RemoteN: n}

	switch {
	case n > req.LocalN:
		// We're ahead of the side that's supposed to be the superset.
		resp.Divergent = true
	case n == req.LocalN && root != req.LocalRoot:
		resp.Divergent = true
	}
	return resp, nil
}

// Nodes verifies every payload's hash before mutating any state — a
// single bad node fails the whole batch atomically — then folds leaves
// into the frontier in the order given and records any internal nodes
// supplied for bookkeeping.
func (r *Remote) Nodes(ctx context.Context, req NodesRequest) (NodesResponse, error) {
	if req.Version != ProtocolVersion {
		return NodesResponse{Version: ProtocolVersion, Ok: false, Error: "protocol version mismatch"}, nil
	}

	for _, p := range req.Nodes {
		if p.IsLeaf {
			if merkle.LeafHash(p.Canonical) != p.Hash {
				return NodesResponse{Version: ProtocolVersion, Ok: false, Error: "leaf hash mismatch"}, nil
			}
			continue
		}
		if merkle.InternalHash(p.Left, p.Right) != p.Hash {
			return NodesResponse{Version: ProtocolVersion, Ok: false, Error: "internal hash mismatch"}, nil
		}
	}

	for _, p := range req.Nodes {
		if p.IsLeaf {
			if r.seenLeaves[p.Hash] {
				continue
			}
			if _, err := r.tree.IngestLeaf(ctx, p.Canonical, p.Hash); err != nil {
				return NodesResponse{}, verr.Wrap("syncproto.Remote.Nodes", verr.IO, err)
			}
			r.seenLeaves[p.Hash] = true
			continue
		}
		left, right := p.Left, p.Right
		node := types.MerkleNode{Hash: p.Hash, Kind: types.NodeInternal, Left: &left, Right: &right}
		if err := r.repo.PutInternalNode(ctx, node); err != nil {
			return NodesResponse{}, verr.Wrap("syncproto.Remote.Nodes", verr.IO, err)
		}
	}

	return NodesResponse{Version: ProtocolVersion, Ok: true}, nil
}

// Ack reports this Remote's root/N after ingesting a Nodes batch.
func (r *Remote) Ack(ctx context.Context) (AckMessage, error) {
	root, n, err := r.repo.Root(ctx)
	if err != nil {
		return AckMessage{}, verr.Wrap("syncproto.Remote.Ack", verr.IO, err)
	}
	return AckMessage{Version: ProtocolVersion, NewRoot: root, NewN: n}, nil
}
