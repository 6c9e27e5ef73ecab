package draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinistack/vetcore/internal/merkle"
	"github.com/clinistack/vetcore/internal/types"
)

type fakeStore struct {
	patients map[string]types.Patient
	drafts   map[string]types.EncounterDraft
}

func newFakeStore() *fakeStore {
	return &fakeStore{patients: map[string]types.Patient{}, drafts: map[string]types.EncounterDraft{}}
}

func (s *fakeStore) GetPatient(_ context.Context, localID string) (types.Patient, bool, error) {
	p, ok := s.patients[localID]
	return p, ok, nil
}

func (s *fakeStore) CreateDraft(_ context.Context, d types.EncounterDraft) error {
	s.drafts[d.DraftID] = d
	return nil
}

func (s *fakeStore) GetDraft(_ context.Context, draftID string) (types.EncounterDraft, bool, error) {
	d, ok := s.drafts[draftID]
	return d, ok, nil
}

func (s *fakeStore) UpdateDraft(_ context.Context, d types.EncounterDraft) error {
	s.drafts[d.DraftID] = d
	return nil
}

func (s *fakeStore) ListOpenDrafts(context.Context) ([]types.EncounterDraft, error) {
	var out []types.EncounterDraft
	for _, d := range s.drafts {
		if d.Status == types.DraftOpen {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeNormalizer struct{}

func (fakeNormalizer) Normalize(m types.DrugMention) types.NormalizedMention {
	return types.NormalizedMention{CanonicalName: m.RawName}
}

// doseNormalizer echoes the mention's dose through as DoseMg, the way the
// real Normalizer does after unit conversion, so commit tests can assert
// the dose lands in the committed line item's Quantity.
type doseNormalizer struct{}

func (doseNormalizer) Normalize(m types.DrugMention) types.NormalizedMention {
	n := types.NormalizedMention{CanonicalName: m.RawName, Unit: types.UnitMg}
	if m.Dose != nil {
		dose := *m.Dose
		n.DoseMg = &dose
	}
	return n
}

type fakeResolver struct {
	candidates []types.ScoredCandidate
}

func (f fakeResolver) Resolve(types.NormalizedMention, types.Patient) ([]types.ScoredCandidate, error) {
	return f.candidates, nil
}

type fakeCommitter struct {
	calls []types.ReviewedEncounter
}

func (f *fakeCommitter) Commit(_ context.Context, e types.ReviewedEncounter) (merkle.CommitResult, error) {
	f.calls = append(f.calls, e)
	return merkle.CommitResult{SeqNo: uint64(len(f.calls) - 1)}, nil
}

func fixedClock() time.Time { return time.Date(2026, 7, 31, 9, 0, 0, 0, time.UTC) }

func TestCreateDraftFailsForUnknownPatient(t *testing.T) {
	mgr := New(newFakeStore(), fakeNormalizer{}, fakeResolver{}, &fakeCommitter{}, fixedClock)
	_, err := mgr.CreateDraft(context.Background(), "missing", "transcript")
	assert.Error(t, err)
}

func TestAddMentionSetsTopSKUFromResolver(t *testing.T) {
	store := newFakeStore()
	store.patients["p1"] = types.Patient{LocalID: "p1", Species: "dog"}
	resolver := fakeResolver{candidates: []types.ScoredCandidate{
		{Item: types.CatalogItem{SKU: "CARP-75"}, Confidence: 0.95},
	}}
	mgr := New(store, fakeNormalizer{}, resolver, &fakeCommitter{}, fixedClock)

	ctx := context.Background()
	draftID, err := mgr.CreateDraft(ctx, "p1", "gave rimadyl")
	require.NoError(t, err)

	require.NoError(t, mgr.AddMention(ctx, draftID, types.DrugMention{RawName: "rimadyl"}))

	d, ok, err := store.GetDraft(ctx, draftID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "CARP-75", d.Items[0].TopSKU)
	assert.Equal(t, types.StatusPending, d.Items[0].Status)
}

func TestCommitRejectedAllItemsFailsInvalidState(t *testing.T) {
	store := newFakeStore()
	store.patients["p1"] = types.Patient{LocalID: "p1"}
	committer := &fakeCommitter{}
	mgr := New(store, fakeNormalizer{}, fakeResolver{}, committer, fixedClock)

	ctx := context.Background()
	draftID, err := mgr.CreateDraft(ctx, "p1", "t")
	require.NoError(t, err)
	require.NoError(t, mgr.AddMention(ctx, draftID, types.DrugMention{RawName: "x"}))

	require.NoError(t, mgr.SetItemDecision(ctx, draftID, 0, Decision{Kind: DecisionReject}))

	_, err = mgr.Commit(ctx, draftID, "vet-1")
	assert.Error(t, err)
	assert.Empty(t, committer.calls, "no leaf written")

	d, _, _ := store.GetDraft(ctx, draftID)
	assert.Equal(t, types.DraftOpen, d.Status, "draft stays open on failed commit")
}

func TestCommitFailsWhilePending(t *testing.T) {
	store := newFakeStore()
	store.patients["p1"] = types.Patient{LocalID: "p1"}
	mgr := New(store, fakeNormalizer{}, fakeResolver{}, &fakeCommitter{}, fixedClock)

	ctx := context.Background()
	draftID, err := mgr.CreateDraft(ctx, "p1", "t")
	require.NoError(t, err)
	require.NoError(t, mgr.AddMention(ctx, draftID, types.DrugMention{RawName: "x"}))

	_, err = mgr.Commit(ctx, draftID, "vet-1")
	assert.Error(t, err)
}

func TestCommitApprovedClosesAndExcludesRejected(t *testing.T) {
	store := newFakeStore()
	store.patients["p1"] = types.Patient{LocalID: "p1", ServerID: "srv-9"}
	committer := &fakeCommitter{}
	mgr := New(store, fakeNormalizer{}, fakeResolver{}, committer, fixedClock)

	ctx := context.Background()
	draftID, err := mgr.CreateDraft(ctx, "p1", "t")
	require.NoError(t, err)
	require.NoError(t, mgr.AddMention(ctx, draftID, types.DrugMention{RawName: "a"}))
	require.NoError(t, mgr.AddMention(ctx, draftID, types.DrugMention{RawName: "b"}))

	require.NoError(t, mgr.SetItemDecision(ctx, draftID, 0, Decision{Kind: DecisionApprove}))
	require.NoError(t, mgr.SetItemDecision(ctx, draftID, 1, Decision{Kind: DecisionReject}))

	_, err = mgr.Commit(ctx, draftID, "vet-1")
	require.NoError(t, err)
	require.Len(t, committer.calls, 1)
	assert.Len(t, committer.calls[0].LineItems, 1, "rejected item excluded")
	assert.Equal(t, types.PatientIdentity{Kind: types.PatientIDServer, ID: "srv-9"}, committer.calls[0].Patient)

	d, _, _ := store.GetDraft(ctx, draftID)
	assert.Equal(t, types.DraftClosed, d.Status)
	assert.NotNil(t, d.ClosedAt)
}

func TestCommitLineItemQuantityCarriesDose(t *testing.T) {
	store := newFakeStore()
	store.patients["p1"] = types.Patient{LocalID: "p1"}
	resolver := fakeResolver{candidates: []types.ScoredCandidate{{Item: types.CatalogItem{SKU: "CARP-75"}, Confidence: 0.9}}}
	committer := &fakeCommitter{}
	mgr := New(store, doseNormalizer{}, resolver, committer, fixedClock)

	ctx := context.Background()
	draftID, err := mgr.CreateDraft(ctx, "p1", "gave 100mg rimadyl, then 500mg novox")
	require.NoError(t, err)
	dose100, dose500 := 100.0, 500.0
	require.NoError(t, mgr.AddMention(ctx, draftID, types.DrugMention{RawName: "rimadyl", Dose: &dose100}))
	require.NoError(t, mgr.AddMention(ctx, draftID, types.DrugMention{RawName: "novox", Dose: &dose500}))
	require.NoError(t, mgr.AddMention(ctx, draftID, types.DrugMention{RawName: "ace"}))

	require.NoError(t, mgr.SetItemDecision(ctx, draftID, 0, Decision{Kind: DecisionApprove}))
	require.NoError(t, mgr.SetItemDecision(ctx, draftID, 1, Decision{Kind: DecisionApprove}))
	require.NoError(t, mgr.SetItemDecision(ctx, draftID, 2, Decision{Kind: DecisionApprove}))

	_, err = mgr.Commit(ctx, draftID, "vet-1")
	require.NoError(t, err)
	require.Len(t, committer.calls, 1)
	items := committer.calls[0].LineItems
	require.Len(t, items, 3)
	assert.Equal(t, 100.0, items[0].Quantity, "100mg and 500mg doses must not collapse to the same billed quantity")
	assert.Equal(t, 500.0, items[1].Quantity)
	assert.Equal(t, 1.0, items[2].Quantity, "no recognized dose falls back to a unit quantity")
}

func TestListPendingSortsByLowestConfidence(t *testing.T) {
	store := newFakeStore()
	store.patients["p1"] = types.Patient{LocalID: "p1"}
	ctx := context.Background()

	mgr := New(store, fakeNormalizer{}, fakeResolver{candidates: []types.ScoredCandidate{
		{Item: types.CatalogItem{SKU: "A"}, Confidence: 0.9},
	}}, &fakeCommitter{}, fixedClock)
	safeID, err := mgr.CreateDraft(ctx, "p1", "t1")
	require.NoError(t, err)
	require.NoError(t, mgr.AddMention(ctx, safeID, types.DrugMention{RawName: "x"}))

	mgr2 := New(store, fakeNormalizer{}, fakeResolver{candidates: []types.ScoredCandidate{
		{Item: types.CatalogItem{SKU: "B"}, Confidence: 0.2},
	}}, &fakeCommitter{}, fixedClock)
	riskyID, err := mgr2.CreateDraft(ctx, "p1", "t2")
	require.NoError(t, err)
	require.NoError(t, mgr2.AddMention(ctx, riskyID, types.DrugMention{RawName: "y"}))

	pending, err := mgr.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, riskyID, pending[0].DraftID, "lowest confidence (riskiest) sorts first")
}
