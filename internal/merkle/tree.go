package merkle

import (
	"context"

	"github.com/clinistack/vetcore/internal/types"
	"github.com/clinistack/vetcore/internal/verr"
)

// FrontierEntry is one "complete" subtree root on the append frontier: a
// perfect binary subtree of 2^Height leaves starting at leaf index Lo,
// not yet combined with a right sibling of the same height. The set of
// frontier entries at any point is exactly the binary decomposition of
// the leaf count, largest subtree first — classic incremental-Merkle-tree
// bookkeeping (the same shape Certificate Transparency logs use), stored
// explicitly here rather than recomputed on every commit.
type FrontierEntry struct {
	Height int
	Lo     uint64
	Hash   [32]byte
}

// NodeRepo is the persistence contract the Store satisfies for the Merkle
// log: content-addressed node storage (never an in-memory pointer graph),
// append-only leaves, and the frontier/root bookkeeping needed to commit
// in O(log N) amortized internal-node writes.
type NodeRepo interface {
	NLeaves(ctx context.Context) (uint64, error)
	LeafHash(ctx context.Context, seqNo uint64) ([32]byte, error)
	LeafCanonical(ctx context.Context, seqNo uint64) ([]byte, error)
	AppendLeaf(ctx context.Context, leafHash [32]byte, canonical []byte) (seqNo uint64, err error)
	PutInternalNode(ctx context.Context, node types.MerkleNode) error
	GetNode(ctx context.Context, hash [32]byte) (types.MerkleNode, bool, error)

	Frontier(ctx context.Context) ([]FrontierEntry, error)
	SetFrontier(ctx context.Context, frontier []FrontierEntry) error

	// RangeHash caches the hash of the closed subtree covering leaves
	// [lo, hi), when known. It is populated for every perfect internal
	// subtree the commit path builds; single leaves and ranges that are
	// not perfect subtrees are recomputed from cached subtrees and leaf
	// hashes instead of being read from it.
	PutRangeHash(ctx context.Context, lo, hi uint64, hash [32]byte) error
	RangeHash(ctx context.Context, lo, hi uint64) (hash [32]byte, ok bool, err error)

	SetRoot(ctx context.Context, hash [32]byte, n uint64) error
	Root(ctx context.Context) (hash [32]byte, n uint64, err error)
}

// Tree is the Merkle log over a NodeRepo.
type Tree struct {
	repo NodeRepo
}

// New wraps repo as a Tree.
func New(repo NodeRepo) *Tree {
	return &Tree{repo: repo}
}

// CommitResult is the outcome of appending one encounter to the log.
type CommitResult struct {
	SeqNo    uint64
	LeafHash [32]byte
	NewRoot  [32]byte
}

// Commit encodes e, appends it as the next leaf, folds it into the
// frontier, and updates the persisted root — all within the caller's
// transaction (the repo implementation is expected to run this inside a
// single Store transaction, per §6).
func (t *Tree) Commit(ctx context.Context, e types.ReviewedEncounter) (CommitResult, error) {
	if err := validate(e); err != nil {
		return CommitResult{}, err
	}

	canonical := Encode(e)
	leafHash := LeafHash(canonical)
	return t.appendAndFold(ctx, leafHash, canonical)
}

// IngestLeaf appends a leaf whose hash has already been verified by the
// caller (the sync engine, after checking it against the canonical
// bytes) without re-deriving it from a ReviewedEncounter. Used on the
// receiving side of a sync: the remote trusts the batch-level hash
// check in Nodes and just needs to fold the leaf into its own frontier.
func (t *Tree) IngestLeaf(ctx context.Context, canonical []byte, leafHash [32]byte) (CommitResult, error) {
	return t.appendAndFold(ctx, leafHash, canonical)
}

func (t *Tree) appendAndFold(ctx context.Context, leafHash [32]byte, canonical []byte) (CommitResult, error) {
	n, err := t.repo.NLeaves(ctx)
	if err != nil {
		return CommitResult{}, verr.Wrap("merkle.Commit", verr.IO, err)
	}

	seqNo, err := t.repo.AppendLeaf(ctx, leafHash, canonical)
	if err != nil {
		return CommitResult{}, verr.Wrap("merkle.Commit", verr.IO, err)
	}

	frontier, err := t.repo.Frontier(ctx)
	if err != nil {
		return CommitResult{}, verr.Wrap("merkle.Commit", verr.IO, err)
	}

	cur := FrontierEntry{Height: 0, Lo: n, Hash: leafHash}
	for len(frontier) > 0 && frontier[len(frontier)-1].Height == cur.Height {
		top := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		combined := InternalHash(top.Hash, cur.Hash)
		lo, hi := top.Lo, cur.Lo+(1<<uint(cur.Height))

		node := types.MerkleNode{
			Hash:   combined,
			Kind:   types.NodeInternal,
			Left:   &top.Hash,
			Right:  &cur.Hash,
			Height: cur.Height + 1,
		}
		if err := t.repo.PutInternalNode(ctx, node); err != nil {
			return CommitResult{}, verr.Wrap("merkle.Commit", verr.IO, err)
		}
		if err := t.repo.PutRangeHash(ctx, lo, hi, combined); err != nil {
			return CommitResult{}, verr.Wrap("merkle.Commit", verr.IO, err)
		}

		cur = FrontierEntry{Height: cur.Height + 1, Lo: lo, Hash: combined}
	}
	frontier = append(frontier, cur)

	if err := t.repo.SetFrontier(ctx, frontier); err != nil {
		return CommitResult{}, verr.Wrap("merkle.Commit", verr.IO, err)
	}

	root := foldFrontier(frontier)
	if err := t.repo.SetRoot(ctx, root, seqNo+1); err != nil {
		return CommitResult{}, verr.Wrap("merkle.Commit", verr.IO, err)
	}

	return CommitResult{SeqNo: seqNo, LeafHash: leafHash, NewRoot: root}, nil
}

// foldFrontier combines the frontier's subtree roots right-to-left: the
// rightmost (most recent, smallest) entry nests inside its left
// neighbor's combination, matching the MTH recursive definition's split
// at the largest power of two less than n.
func foldFrontier(frontier []FrontierEntry) [32]byte {
	acc := frontier[len(frontier)-1].Hash
	for i := len(frontier) - 2; i >= 0; i-- {
		acc = InternalHash(frontier[i].Hash, acc)
	}
	return acc
}

// splitPoint returns the largest power of two strictly less than size,
// per the MTH recursive definition (size must be >= 2).
func splitPoint(size uint64) uint64 {
	k := uint64(1)
	for k*2 < size {
		k *= 2
	}
	return k
}

// RootAt recomputes the historical root the tree had when it contained
// exactly n leaves, by re-deriving MTH(D[0:n]) from the current log. A
// tree never rewrites past leaves, so this is always well defined for
// n <= the current leaf count.
func (t *Tree) RootAt(ctx context.Context, n uint64) ([32]byte, error) {
	if n == 0 {
		return [32]byte{}, nil
	}
	return rangeHash(ctx, t.repo, 0, n)
}

// rangeHash returns the MTH of leaves [lo, hi), preferring the repo's
// cached closed-subtree hash and falling back to direct recomputation
// from leaves when no cache entry exists (e.g. a range that never sat on
// the frontier, such as hi == lo+1 and lo odd at some growth points).
func rangeHash(ctx context.Context, repo NodeRepo, lo, hi uint64) ([32]byte, error) {
	if cached, ok, err := repo.RangeHash(ctx, lo, hi); err != nil {
		return [32]byte{}, err
	} else if ok {
		return cached, nil
	}

	if hi-lo == 1 {
		return repo.LeafHash(ctx, lo)
	}

	k := splitPoint(hi - lo)
	left, err := rangeHash(ctx, repo, lo, lo+k)
	if err != nil {
		return [32]byte{}, err
	}
	right, err := rangeHash(ctx, repo, lo+k, hi)
	if err != nil {
		return [32]byte{}, err
	}
	return InternalHash(left, right), nil
}
