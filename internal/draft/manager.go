// Package draft implements the Draft manager: the EncounterDraft
// lifecycle that stages a resolver's output for reviewer sign-off before
// it is committed to the Merkle log.
package draft

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinistack/vetcore/internal/merkle"
	"github.com/clinistack/vetcore/internal/types"
	"github.com/clinistack/vetcore/internal/verr"
)

// Store is the subset of persistence the Draft manager needs.
type Store interface {
	GetPatient(ctx context.Context, localID string) (types.Patient, bool, error)
	CreateDraft(ctx context.Context, d types.EncounterDraft) error
	GetDraft(ctx context.Context, draftID string) (types.EncounterDraft, bool, error)
	UpdateDraft(ctx context.Context, d types.EncounterDraft) error
	ListOpenDrafts(ctx context.Context) ([]types.EncounterDraft, error)
}

// Normalizer produces a NormalizedMention from a raw DrugMention.
type Normalizer interface {
	Normalize(m types.DrugMention) types.NormalizedMention
}

// Resolver ranks catalog candidates for a normalized mention against a
// patient.
type Resolver interface {
	Resolve(mention types.NormalizedMention, patient types.Patient) ([]types.ScoredCandidate, error)
}

// Committer hands a finished ReviewedEncounter to the Merkle log.
type Committer interface {
	Commit(ctx context.Context, e types.ReviewedEncounter) (merkle.CommitResult, error)
}

// DecisionKind is the reviewer's disposition for one ResolvedItem.
type DecisionKind int

const (
	DecisionApprove DecisionKind = iota
	DecisionChooseAlternative
	DecisionReject
)

// Decision is the reviewer's input to SetItemDecision. SKU is only read
// when Kind is DecisionChooseAlternative.
type Decision struct {
	Kind DecisionKind
	SKU  string
}

// Manager drives the EncounterDraft lifecycle: create, add_mention,
// set_item_decision, list_pending, commit.
type Manager struct {
	store      Store
	normalizer Normalizer
	resolver   Resolver
	committer  Committer
	now        func() time.Time
}

// New builds a Manager. now defaults to time.Now if nil (tests may
// override it for determinism).
func New(store Store, normalizer Normalizer, resolver Resolver, committer Committer, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: store, normalizer: normalizer, resolver: resolver, committer: committer, now: now}
}

// CreateDraft opens a new draft against an existing patient.
func (m *Manager) CreateDraft(ctx context.Context, patientLocalID, transcript string) (string, error) {
	if _, ok, err := m.store.GetPatient(ctx, patientLocalID); err != nil {
		return "", verr.Wrap("draft.CreateDraft", verr.IO, err)
	} else if !ok {
		return "", verr.New("draft.CreateDraft", verr.NotFound)
	}

	d := types.EncounterDraft{
		DraftID:        uuid.NewString(),
		PatientLocalID: patientLocalID,
		Transcript:     transcript,
		Status:         types.DraftOpen,
		CreatedAt:      m.now(),
	}
	if err := m.store.CreateDraft(ctx, d); err != nil {
		return "", verr.Wrap("draft.CreateDraft", verr.IO, err)
	}
	return d.DraftID, nil
}

// AddMention resolves mention against the draft's patient and appends
// the resulting ResolvedItem. The resolver never fails on its own
// account — an empty candidate list just means the item starts pending
// with no top SKU, awaiting manual search.
func (m *Manager) AddMention(ctx context.Context, draftID string, mention types.DrugMention) error {
	d, ok, err := m.store.GetDraft(ctx, draftID)
	if err != nil {
		return verr.Wrap("draft.AddMention", verr.IO, err)
	}
	if !ok {
		return verr.New("draft.AddMention", verr.NotFound)
	}
	if d.Status != types.DraftOpen {
		return verr.New("draft.AddMention", verr.InvalidState)
	}

	patient, ok, err := m.store.GetPatient(ctx, d.PatientLocalID)
	if err != nil {
		return verr.Wrap("draft.AddMention", verr.IO, err)
	}
	if !ok {
		return verr.New("draft.AddMention", verr.NotFound)
	}

	normalized := m.normalizer.Normalize(mention)
	candidates, err := m.resolver.Resolve(normalized, patient)
	if err != nil {
		return verr.Wrap("draft.AddMention", verr.IO, err)
	}

	item := types.ResolvedItem{
		OriginalText: mention.RawName,
		Normalized:   normalized,
		Candidates:   candidates,
		Status:       types.StatusPending,
	}
	if len(candidates) > 0 {
		item.TopSKU = candidates[0].Item.SKU
	}

	d.Items = append(d.Items, item)
	return m.storeUpdate(ctx, d)
}

// SetItemDecision records the reviewer's disposition for one item.
func (m *Manager) SetItemDecision(ctx context.Context, draftID string, itemIndex int, decision Decision) error {
	d, ok, err := m.store.GetDraft(ctx, draftID)
	if err != nil {
		return verr.Wrap("draft.SetItemDecision", verr.IO, err)
	}
	if !ok {
		return verr.New("draft.SetItemDecision", verr.NotFound)
	}
	if d.Status != types.DraftOpen {
		return verr.New("draft.SetItemDecision", verr.InvalidState)
	}
	if itemIndex < 0 || itemIndex >= len(d.Items) {
		return verr.New("draft.SetItemDecision", verr.InvalidInput)
	}

	item := &d.Items[itemIndex]
	switch decision.Kind {
	case DecisionApprove:
		item.Status = types.StatusApproved
		item.ChosenSKU = item.TopSKU
	case DecisionChooseAlternative:
		if decision.SKU == "" {
			return verr.New("draft.SetItemDecision", verr.InvalidInput)
		}
		item.Status = types.StatusAlternativeSelected
		item.ChosenSKU = decision.SKU
	case DecisionReject:
		item.Status = types.StatusRejected
		item.ChosenSKU = ""
	default:
		return verr.New("draft.SetItemDecision", verr.InvalidInput)
	}

	return m.storeUpdate(ctx, d)
}

// ListPending returns open drafts with at least one pending item,
// sorted ascending by the lowest confidence across their items (the
// riskiest draft first).
func (m *Manager) ListPending(ctx context.Context) ([]types.EncounterDraft, error) {
	open, err := m.store.ListOpenDrafts(ctx)
	if err != nil {
		return nil, verr.Wrap("draft.ListPending", verr.IO, err)
	}

	var pending []types.EncounterDraft
	for _, d := range open {
		if hasPendingItem(d) {
			pending = append(pending, d)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		return lowestConfidence(pending[i]) < lowestConfidence(pending[j])
	})
	return pending, nil
}

func hasPendingItem(d types.EncounterDraft) bool {
	for _, item := range d.Items {
		if item.Status == types.StatusPending {
			return true
		}
	}
	return false
}

func lowestConfidence(d types.EncounterDraft) float64 {
	lowest := 1.0
	for _, item := range d.Items {
		for _, c := range item.Candidates {
			if c.Confidence < lowest {
				lowest = c.Confidence
			}
		}
	}
	return lowest
}

// Commit validates that every item has been reviewed and at least one
// was approved or alternative_selected, builds the ReviewedEncounter,
// hands it to the Merkle log, and closes the draft on success. Rejected
// items are preserved on the draft but excluded from the committed line
// items.
func (m *Manager) Commit(ctx context.Context, draftID, reviewerID string) (merkle.CommitResult, error) {
	d, ok, err := m.store.GetDraft(ctx, draftID)
	if err != nil {
		return merkle.CommitResult{}, verr.Wrap("draft.Commit", verr.IO, err)
	}
	if !ok {
		return merkle.CommitResult{}, verr.New("draft.Commit", verr.NotFound)
	}
	if d.Status != types.DraftOpen {
		return merkle.CommitResult{}, verr.New("draft.Commit", verr.InvalidState)
	}

	lineItems, err := buildLineItems(d)
	if err != nil {
		return merkle.CommitResult{}, err
	}

	patient, ok, err := m.store.GetPatient(ctx, d.PatientLocalID)
	if err != nil {
		return merkle.CommitResult{}, verr.Wrap("draft.Commit", verr.IO, err)
	}
	if !ok {
		return merkle.CommitResult{}, verr.New("draft.Commit", verr.NotFound)
	}

	encounter := types.ReviewedEncounter{
		DraftID:          d.DraftID,
		Patient:          patientIdentity(patient),
		ReviewerID:       reviewerID,
		ReviewedAt:       m.now(),
		LineItems:        lineItems,
		TranscriptDigest: transcriptDigest(d.Transcript),
	}

	result, err := m.committer.Commit(ctx, encounter)
	if err != nil {
		return merkle.CommitResult{}, err
	}

	now := m.now()
	d.Status = types.DraftClosed
	d.ReviewerID = reviewerID
	d.ClosedAt = &now
	if err := m.storeUpdate(ctx, d); err != nil {
		return merkle.CommitResult{}, err
	}

	return result, nil
}

// buildLineItems requires every item to be non-pending and at least one
// to be approved or alternative_selected.
func buildLineItems(d types.EncounterDraft) ([]types.LineItem, error) {
	var lineItems []types.LineItem
	accepted := false

	for _, item := range d.Items {
		if item.Status == types.StatusPending {
			return nil, verr.New("draft.Commit", verr.InvalidState)
		}
		if item.Status == types.StatusRejected {
			continue
		}
		accepted = true
		lineItems = append(lineItems, types.LineItem{
			SKU:      item.ChosenSKU,
			Quantity: lineQuantity(item.Normalized),
			Unit:     item.Normalized.Unit,
			Route:    item.Normalized.Route,
			Species:  item.Normalized.Species,
		})
	}

	if !accepted {
		return nil, verr.New("draft.Commit", verr.InvalidState)
	}
	return lineItems, nil
}

// lineQuantity carries the normalized dose amount onto the committed line
// item so billing/compliance exports reflect how much was given, not just
// what. A mention with no recognized dose falls back to a unit quantity of
// 1 rather than zero — the line item still needs to bill for something.
func lineQuantity(n types.NormalizedMention) float64 {
	if n.DoseMg == nil {
		return 1
	}
	return *n.DoseMg
}

func patientIdentity(p types.Patient) types.PatientIdentity {
	if p.ServerID != "" {
		return types.PatientIdentity{Kind: types.PatientIDServer, ID: p.ServerID}
	}
	return types.PatientIdentity{Kind: types.PatientIDLocal, ID: p.LocalID}
}

func (m *Manager) storeUpdate(ctx context.Context, d types.EncounterDraft) error {
	if err := m.store.UpdateDraft(ctx, d); err != nil {
		return verr.Wrap("draft.storeUpdate", verr.IO, err)
	}
	return nil
}
