package merkle

import (
	"context"
	"crypto/subtle"

	"github.com/clinistack/vetcore/internal/verr"
)

// Proof is an inclusion audit path: the ordered sibling hashes from leaf
// to root, each tagged with which side it sits on, plus the seq_no and
// leaf count the path was computed against.
type Proof struct {
	SeqNo    uint64
	NLeaves  uint64
	Siblings [][32]byte
	// IsRight[i] reports whether the accumulated hash is the right
	// operand when folding in Siblings[i] (i.e. the sibling is the left
	// child at that level).
	IsRight []bool
}

// GenerateProof builds the audit path for seqNo against the tree's
// current leaf count.
func (t *Tree) GenerateProof(ctx context.Context, seqNo uint64) (Proof, error) {
	n, err := t.repo.NLeaves(ctx)
	if err != nil {
		return Proof{}, verr.Wrap("merkle.GenerateProof", verr.IO, err)
	}
	if seqNo >= n {
		return Proof{}, verr.New("merkle.GenerateProof", verr.NotFound)
	}

	siblings, isRight, err := auditPath(ctx, t.repo, seqNo, 0, n)
	if err != nil {
		return Proof{}, verr.Wrap("merkle.GenerateProof", verr.IO, err)
	}
	return Proof{SeqNo: seqNo, NLeaves: n, Siblings: siblings, IsRight: isRight}, nil
}

// auditPath recursively descends the MTH split for the range [lo, hi)
// containing seqNo, collecting the sibling at each level it passes
// through. The returned slices are ordered leaf-to-root: the deepest
// sibling (closest to the leaf) is first.
func auditPath(ctx context.Context, repo NodeRepo, seqNo, lo, hi uint64) ([][32]byte, []bool, error) {
	if hi-lo == 1 {
		return nil, nil, nil
	}

	k := splitPoint(hi - lo)
	if seqNo < lo+k {
		siblings, isRight, err := auditPath(ctx, repo, seqNo, lo, lo+k)
		if err != nil {
			return nil, nil, err
		}
		sib, err := rangeHash(ctx, repo, lo+k, hi)
		if err != nil {
			return nil, nil, err
		}
		return append(siblings, sib), append(isRight, false), nil
	}

	siblings, isRight, err := auditPath(ctx, repo, seqNo, lo+k, hi)
	if err != nil {
		return nil, nil, err
	}
	sib, err := rangeHash(ctx, repo, lo, lo+k)
	if err != nil {
		return nil, nil, err
	}
	return append(siblings, sib), append(isRight, true), nil
}

// VerifyProof re-derives a root from leafHash and proof, and compares it
// against expectedRoot in constant time. It does not touch the repo: a
// verifier only needs the leaf hash, the proof, and the root it is
// checking against.
func VerifyProof(leafHash [32]byte, proof Proof, expectedRoot [32]byte) bool {
	if len(proof.Siblings) != len(proof.IsRight) {
		return false
	}

	acc := leafHash
	for i, sib := range proof.Siblings {
		if proof.IsRight[i] {
			acc = InternalHash(sib, acc)
		} else {
			acc = InternalHash(acc, sib)
		}
	}

	return subtle.ConstantTimeCompare(acc[:], expectedRoot[:]) == 1
}
