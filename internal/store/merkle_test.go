package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinistack/vetcore/internal/merkle"
	"github.com/clinistack/vetcore/internal/types"
)

func sampleEncounter(draftID string) types.ReviewedEncounter {
	return types.ReviewedEncounter{
		DraftID:    draftID,
		Patient:    types.PatientIdentity{Kind: types.PatientIDLocal, ID: "patient-1"},
		ReviewerID: "vet-1",
		ReviewedAt: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		LineItems: []types.LineItem{
			{SKU: "CARP-75", Quantity: 1, Unit: types.UnitMg, Route: types.RoutePO, Species: "dog"},
		},
		TranscriptDigest: [32]byte{7, 7, 7},
	}
}

// commit runs tree.Commit inside a single Store transaction, matching
// how a real caller (the Draft manager's Committer) is expected to use
// WithMerkleTx.
func commit(t *testing.T, s *Store, e types.ReviewedEncounter) merkle.CommitResult {
	t.Helper()
	var result merkle.CommitResult
	err := s.WithMerkleTx(context.Background(), func(repo merkle.NodeRepo) error {
		tree := merkle.New(repo)
		r, err := tree.Commit(context.Background(), e)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	require.NoError(t, err)
	return result
}

func TestStoreBackedMerkleCommitAndProve(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	r1 := commit(t, s, sampleEncounter("draft-1"))
	r2 := commit(t, s, sampleEncounter("draft-2"))

	assert.Equal(t, merkle.InternalHash(r1.LeafHash, r2.LeafHash), r2.NewRoot)

	tree := merkle.New(s.Merkle())
	proof, err := tree.GenerateProof(context.Background(), r1.SeqNo)
	require.NoError(t, err)
	assert.True(t, merkle.VerifyProof(r1.LeafHash, proof, r2.NewRoot))

	root, n, err := s.Merkle().Root(context.Background())
	require.NoError(t, err)
	assert.Equal(t, r2.NewRoot, root)
	assert.Equal(t, uint64(2), n)
}

func TestStoreBackedMerklePersistsAcrossRepoHandles(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	commit(t, s, sampleEncounter("draft-1"))
	commit(t, s, sampleEncounter("draft-2"))
	commit(t, s, sampleEncounter("draft-3"))

	// A fresh NodeRepo view over the same handle must re-derive the same
	// root deterministically from the persisted nodes.
	tree := merkle.New(s.Merkle())
	root, n, err := s.Merkle().Root(context.Background())
	require.NoError(t, err)
	recomputed, err := tree.RootAt(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, root, recomputed)
}
