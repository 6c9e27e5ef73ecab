package syncproto

import (
	"context"

	"github.com/clinistack/vetcore/internal/merkle"
	"github.com/clinistack/vetcore/internal/types"
	"github.com/clinistack/vetcore/internal/verr"
)

// Result summarizes a completed sync.
type Result struct {
	SentNodes     int
	NewRemoteN    uint64
	NewRemoteRoot [32]byte
}

// PhaseError wraps a sync failure with the phase it occurred in, so the
// host can retry Hello without replaying an already-verified Nodes
// batch.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string { return string(e.Phase) + ": " + e.Err.Error() }
func (e *PhaseError) Unwrap() error { return e.Err }

// CancelFunc lets the host signal cancellation between protocol phases.
// The engine checks it between Hello/Nodes/Ack and aborts without
// partial state if it returns true.
type CancelFunc func() bool

// Engine drives the local (pushing) side of a sync: it always assumes
// its own log is a superset of the remote's. A remote that claims to be
// ahead, or whose root doesn't fall on the local log's history, is
// reported Divergent rather than merged automatically.
type Engine struct {
	tree *merkle.Tree
	repo merkle.NodeRepo
}

// NewEngine builds an Engine over the local Merkle log.
func NewEngine(tree *merkle.Tree, repo merkle.NodeRepo) *Engine {
	return &Engine{tree: tree, repo: repo}
}

// Sync runs the full Hello/Nodes/Ack exchange against peer. cancel may
// be nil.
func (e *Engine) Sync(ctx context.Context, peer RemotePeer, cancel CancelFunc) (Result, error) {
	localRoot, localN, err := e.repo.Root(ctx)
	if err != nil {
		return Result{}, &PhaseError{PhaseHello, verr.Wrap("syncproto.Sync", verr.IO, err)}
	}

	helloResp, err := peer.Hello(ctx, HelloRequest{Version: ProtocolVersion, LocalRoot: localRoot, LocalN: localN})
	if err != nil {
		return Result{}, &PhaseError{PhaseHello, err}
	}
	if helloResp.Divergent {
		return Result{}, &PhaseError{PhaseHello, verr.New("syncproto.Sync", verr.Divergent)}
	}
	if helloResp.RemoteN > localN {
		return Result{}, &PhaseError{PhaseHello, verr.New("syncproto.Sync", verr.Divergent)}
	}
	if helloResp.RemoteN > 0 {
		expected, err := e.tree.RootAt(ctx, helloResp.RemoteN)
		if err != nil {
			return Result{}, &PhaseError{PhaseHello, verr.Wrap("syncproto.Sync", verr.IO, err)}
		}
		if expected != helloResp.RemoteRoot {
			return Result{}, &PhaseError{PhaseHello, verr.New("syncproto.Sync", verr.Divergent)}
		}
	}

	if isCancelled(cancel) {
		return Result{}, &PhaseError{PhaseHello, verr.New("syncproto.Sync", verr.InvalidState)}
	}

	if helloResp.RemoteN == localN && len(helloResp.Missing) == 0 {
		return Result{SentNodes: 0, NewRemoteN: helloResp.RemoteN, NewRemoteRoot: helloResp.RemoteRoot}, nil
	}

	// The remote cannot name the hashes of leaves it has never seen, so
	// Missing only ever carries explicit resume requests for internal
	// nodes it already has a dangling reference to (e.g. from a prior
	// sync interrupted mid-batch). The catch-up leaf range itself is
	// derived directly from remote_N/local_N, which both sides already
	// agree on from Hello.
	payloads := make([]NodePayload, 0, int(localN-helloResp.RemoteN)+len(helloResp.Missing))
	for seqNo := helloResp.RemoteN; seqNo < localN; seqNo++ {
		payload, err := e.buildLeafPayload(ctx, seqNo)
		if err != nil {
			return Result{}, &PhaseError{PhaseNodes, err}
		}
		payloads = append(payloads, payload)
	}
	for _, hash := range helloResp.Missing {
		payload, err := e.buildInternalPayload(ctx, hash)
		if err != nil {
			return Result{}, &PhaseError{PhaseNodes, err}
		}
		payloads = append(payloads, payload)
	}

	nodesResp, err := peer.Nodes(ctx, NodesRequest{Version: ProtocolVersion, Nodes: payloads})
	if err != nil {
		return Result{}, &PhaseError{PhaseNodes, err}
	}
	if !nodesResp.Ok {
		return Result{}, &PhaseError{PhaseNodes, verr.New("syncproto.Sync", verr.HashMismatch)}
	}

	if isCancelled(cancel) {
		return Result{}, &PhaseError{PhaseNodes, verr.New("syncproto.Sync", verr.InvalidState)}
	}

	ack, err := peer.Ack(ctx)
	if err != nil {
		return Result{}, &PhaseError{PhaseAck, err}
	}

	expectedRoot, err := e.tree.RootAt(ctx, ack.NewN)
	if err != nil {
		return Result{}, &PhaseError{PhaseAck, verr.Wrap("syncproto.Sync", verr.IO, err)}
	}
	if expectedRoot != ack.NewRoot {
		return Result{}, &PhaseError{PhaseAck, verr.New("syncproto.Sync", verr.HashMismatch)}
	}

	return Result{SentNodes: len(payloads), NewRemoteN: ack.NewN, NewRemoteRoot: ack.NewRoot}, nil
}

func (e *Engine) buildLeafPayload(ctx context.Context, seqNo uint64) (NodePayload, error) {
	hash, err := e.repo.LeafHash(ctx, seqNo)
	if err != nil {
		return NodePayload{}, verr.Wrap("syncproto.buildLeafPayload", verr.IO, err)
	}
	canonical, err := e.repo.LeafCanonical(ctx, seqNo)
	if err != nil {
		return NodePayload{}, verr.Wrap("syncproto.buildLeafPayload", verr.IO, err)
	}
	return NodePayload{Hash: hash, IsLeaf: true, Canonical: canonical}, nil
}

func (e *Engine) buildInternalPayload(ctx context.Context, hash [32]byte) (NodePayload, error) {
	node, ok, err := e.repo.GetNode(ctx, hash)
	if err != nil {
		return NodePayload{}, verr.Wrap("syncproto.buildInternalPayload", verr.IO, err)
	}
	if !ok || node.Kind != types.NodeInternal {
		return NodePayload{}, verr.New("syncproto.buildInternalPayload", verr.NotFound)
	}
	return NodePayload{Hash: hash, IsLeaf: false, Left: *node.Left, Right: *node.Right}, nil
}

func isCancelled(cancel CancelFunc) bool {
	return cancel != nil && cancel()
}
