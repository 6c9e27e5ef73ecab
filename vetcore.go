// Package vetcore is the embeddable facade over the offline veterinary
// point-of-care core: drug resolution, the reviewed-encounter Merkle log,
// and peer sync, all built on a single on-disk Store. A host application
// imports this package instead of reaching into internal/... directly;
// the CLI under cmd/vetcore is built on it too, and also imports
// internal/config to load its vetcore.yaml.
package vetcore

import (
	"context"
	"strconv"
	"time"

	"github.com/clinistack/vetcore/internal/catalog"
	"github.com/clinistack/vetcore/internal/config"
	"github.com/clinistack/vetcore/internal/draft"
	"github.com/clinistack/vetcore/internal/merkle"
	"github.com/clinistack/vetcore/internal/ner"
	"github.com/clinistack/vetcore/internal/normalize"
	"github.com/clinistack/vetcore/internal/score"
	"github.com/clinistack/vetcore/internal/store"
	"github.com/clinistack/vetcore/internal/syncproto"
	"github.com/clinistack/vetcore/internal/types"
	"github.com/clinistack/vetcore/internal/verr"
)

// Re-exported types so callers never need to import internal/types
// themselves.
type (
	CatalogItem       = types.CatalogItem
	DrugMention       = types.DrugMention
	NormalizedMention = types.NormalizedMention
	ScoredCandidate   = types.ScoredCandidate
	ScoringWeights    = types.ScoringWeights
	Patient           = types.Patient
	EncounterDraft    = types.EncounterDraft
	ReviewedEncounter = types.ReviewedEncounter
	AliasOverride     = types.AliasOverride
	Proof             = merkle.Proof
	CommitResult      = merkle.CommitResult
	SyncResult        = syncproto.Result
	RemotePeer        = syncproto.RemotePeer
	Decision          = draft.Decision
	DecisionKind      = draft.DecisionKind
	Config            = config.Config
)

// Decision kind constants, re-exported from internal/draft.
const (
	DecisionApprove           = draft.DecisionApprove
	DecisionChooseAlternative = draft.DecisionChooseAlternative
	DecisionReject            = draft.DecisionReject
)

// Error-kind constants, re-exported from internal/verr, so a host can
// branch on the same taxonomy without importing internal/verr.
const (
	ErrNotFound        = verr.NotFound
	ErrUniqueViolation = verr.UniqueViolation
	ErrInvalidInput    = verr.InvalidInput
	ErrInvalidState    = verr.InvalidState
	ErrHashMismatch    = verr.HashMismatch
	ErrDivergent       = verr.Divergent
	ErrConsistency     = verr.Consistency
	ErrIO              = verr.IO
)

// ErrorKind returns the verr.Kind carried by err, or "" if err did not
// originate from this module.
func ErrorKind(err error) verr.Kind { return verr.KindOf(err) }

// Core wires every component over one Store: the Normalizer, the
// Disambiguator, the Draft manager, the Merkle log, and a sync Engine.
// It is the single object a host application needs to embed vetcore.
type Core struct {
	store      *store.Store
	normalizer *normalize.Normalizer
	resolver   *score.Disambiguator
	manager    *draft.Manager
	tree       *merkle.Tree
	extractor  *ner.Extractor
}

// committer adapts Core's store-backed Merkle tree to draft.Committer:
// every commit runs inside a single store transaction, per §6.
type committer struct {
	s *store.Store
}

func (c committer) Commit(ctx context.Context, e types.ReviewedEncounter) (merkle.CommitResult, error) {
	var result merkle.CommitResult
	err := c.s.WithMerkleTx(ctx, func(repo merkle.NodeRepo) error {
		r, err := merkle.New(repo).Commit(ctx, e)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// Open opens (creating if necessary) a Store at path and wires the full
// core over it using cfg's scoring weights. Weights previously persisted
// to the Store's config table (via SetScoringWeights) take precedence
// over cfg, matching §4.8's "survives process restarts" contract.
func Open(path string, cfg config.Config) (*Core, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return newCore(s, cfg)
}

// OpenInMemory opens an ephemeral in-memory core, for tests and scratch
// sessions.
func OpenInMemory(cfg config.Config) (*Core, error) {
	s, err := store.OpenInMemory()
	if err != nil {
		return nil, err
	}
	return newCore(s, cfg)
}

func newCore(s *store.Store, cfg config.Config) (*Core, error) {
	weights, err := persistedWeights(s, cfg.Weights)
	if err != nil {
		s.Close()
		return nil, err
	}

	normalizer := normalize.New(overrideLookup(s))
	resolver, err := score.New(s, weights)
	if err != nil {
		s.Close()
		return nil, err
	}
	extractor := ner.New(nil)

	manager := draft.New(s, normalizerAdapter{normalizer}, resolver, committer{s}, time.Now)

	return &Core{
		store:      s,
		normalizer: normalizer,
		resolver:   resolver,
		manager:    manager,
		tree:       merkle.New(s.Merkle()),
		extractor:  extractor,
	}, nil
}

// normalizerAdapter satisfies draft.Normalizer with *normalize.Normalizer's
// method of the same name — a thin rename, not a behavior change.
type normalizerAdapter struct{ n *normalize.Normalizer }

func (a normalizerAdapter) Normalize(m types.DrugMention) types.NormalizedMention {
	return a.n.Normalize(m)
}

// persistedWeights reads scoring.* keys back from the Store's config
// table, falling back to cfg.Weights for anything not yet set.
func persistedWeights(s *store.Store, fallback types.ScoringWeights) (types.ScoringWeights, error) {
	ctx := context.Background()
	w := fallback
	if v, ok, err := s.GetConfig(ctx, "scoring.name_weight"); err != nil {
		return types.ScoringWeights{}, err
	} else if ok {
		w.Name = parseWeightOrKeep(v, w.Name)
	}
	if v, ok, err := s.GetConfig(ctx, "scoring.species_weight"); err != nil {
		return types.ScoringWeights{}, err
	} else if ok {
		w.Species = parseWeightOrKeep(v, w.Species)
	}
	if v, ok, err := s.GetConfig(ctx, "scoring.route_weight"); err != nil {
		return types.ScoringWeights{}, err
	} else if ok {
		w.Route = parseWeightOrKeep(v, w.Route)
	}
	if v, ok, err := s.GetConfig(ctx, "scoring.dose_weight"); err != nil {
		return types.ScoringWeights{}, err
	} else if ok {
		w.Dose = parseWeightOrKeep(v, w.Dose)
	}
	return w, nil
}

func parseWeightOrKeep(raw string, keep float64) float64 {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return keep
	}
	return f
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// overrideLookup builds an AliasLookup backed by the Store's
// AliasOverride table, consulted before the built-in map.
func overrideLookup(s *store.Store) normalize.AliasLookup {
	return func(cleaned string) (string, bool) {
		canonical, ok, err := s.AliasOverride(context.Background(), cleaned)
		if err != nil || !ok {
			return normalize.BuiltinOnly(cleaned)
		}
		return canonical, true
	}
}

// Close releases the underlying Store handle.
func (c *Core) Close() error { return c.store.Close() }

// UpsertCatalogItem inserts or updates one billable SKU.
func (c *Core) UpsertCatalogItem(ctx context.Context, item types.CatalogItem) error {
	return c.store.UpsertCatalogItem(ctx, item)
}

// GetCatalogItem looks up a SKU.
func (c *Core) GetCatalogItem(ctx context.Context, sku string) (types.CatalogItem, bool, error) {
	return c.store.GetCatalogItem(ctx, sku)
}

// SearchCatalog runs the tokenize/FTS/rank pipeline directly, for a host
// UI's manual-search affordance (independent of drug-mention resolution).
func (c *Core) SearchCatalog(query string, limit int) ([]catalog.Candidate, error) {
	return catalog.Search(c.store, query, limit)
}

// SetAliasOverride adds or updates a per-clinic alias spelling.
func (c *Core) SetAliasOverride(ctx context.Context, o types.AliasOverride) error {
	return c.store.UpsertAliasOverride(ctx, o)
}

// CreatePatient registers a new patient under its local id.
func (c *Core) CreatePatient(ctx context.Context, p types.Patient) error {
	return c.store.CreatePatient(ctx, p)
}

// GetPatient looks up a patient by local id.
func (c *Core) GetPatient(ctx context.Context, localID string) (types.Patient, bool, error) {
	return c.store.GetPatient(ctx, localID)
}

// AttachServerID binds a patient's server identity, failing with
// ErrUniqueViolation if serverID is already bound to a different patient
// (the reject-on-conflict policy, §9 Open Question (b)).
func (c *Core) AttachServerID(ctx context.Context, localID, serverID string) error {
	return c.store.AttachServerID(ctx, localID, serverID)
}

// ResolveMention runs the Normalizer and Disambiguator as one call: the
// convenience path a caller uses outside the Draft lifecycle (e.g. to
// preview a match before starting a draft).
func (c *Core) ResolveMention(mention types.DrugMention, patient types.Patient) ([]types.ScoredCandidate, error) {
	normalized := c.normalizer.Normalize(mention)
	return c.resolver.Resolve(normalized, patient)
}

// ExtractMentions runs the bundled rule-based NER fallback (§6) over a
// transcript. A host with a real NER/LLM pipeline supplies its own
// []DrugMention instead of calling this.
func (c *Core) ExtractMentions(transcript string) []types.DrugMention {
	return c.extractor.Extract(transcript)
}

// CreateDraft opens a new encounter draft for an existing patient.
func (c *Core) CreateDraft(ctx context.Context, patientLocalID, transcript string) (string, error) {
	return c.manager.CreateDraft(ctx, patientLocalID, transcript)
}

// AddMention resolves mention against draftID's patient and appends the
// result as a pending item.
func (c *Core) AddMention(ctx context.Context, draftID string, mention types.DrugMention) error {
	return c.manager.AddMention(ctx, draftID, mention)
}

// SetItemDecision records a reviewer's disposition for one item.
func (c *Core) SetItemDecision(ctx context.Context, draftID string, itemIndex int, decision draft.Decision) error {
	return c.manager.SetItemDecision(ctx, draftID, itemIndex, decision)
}

// ListPending returns open drafts with at least one pending item, riskiest
// first.
func (c *Core) ListPending(ctx context.Context) ([]types.EncounterDraft, error) {
	return c.manager.ListPending(ctx)
}

// GetDraft fetches one draft by id.
func (c *Core) GetDraft(ctx context.Context, draftID string) (types.EncounterDraft, bool, error) {
	return c.store.GetDraft(ctx, draftID)
}

// CommitDraft closes draftID and appends its accepted line items to the
// Merkle log as one leaf.
func (c *Core) CommitDraft(ctx context.Context, draftID, reviewerID string) (merkle.CommitResult, error) {
	return c.manager.Commit(ctx, draftID, reviewerID)
}

// GenerateProof builds an inclusion proof for the leaf at seqNo against
// the log's current state.
func (c *Core) GenerateProof(ctx context.Context, seqNo uint64) (merkle.Proof, error) {
	return c.tree.GenerateProof(ctx, seqNo)
}

// LeafHash returns the hash of the leaf at seqNo.
func (c *Core) LeafHash(ctx context.Context, seqNo uint64) ([32]byte, error) {
	return c.store.Merkle().LeafHash(ctx, seqNo)
}

// VerifyProof checks proof against leafHash and an expected root,
// without touching the Store.
func (c *Core) VerifyProof(leafHash [32]byte, proof merkle.Proof, expectedRoot [32]byte) bool {
	return VerifyProof(leafHash, proof, expectedRoot)
}

// VerifyProof is the package-level, Store-free proof check: a verifier
// only ever needs the leaf hash, the proof, and the root it is checking
// against, never a live Core.
func VerifyProof(leafHash [32]byte, proof merkle.Proof, expectedRoot [32]byte) bool {
	return merkle.VerifyProof(leafHash, proof, expectedRoot)
}

// Root returns the log's current root hash and leaf count.
func (c *Core) Root(ctx context.Context) (hash [32]byte, n uint64, err error) {
	return c.store.Merkle().Root(ctx)
}

// Sync drives the Hello/Nodes/Ack exchange against peer, pushing any
// leaves peer is missing, and records the resulting watermark under
// remoteID. cancel may be nil.
func (c *Core) Sync(ctx context.Context, remoteID string, peer syncproto.RemotePeer, cancel syncproto.CancelFunc) (syncproto.Result, error) {
	engine := syncproto.NewEngine(c.tree, c.store.Merkle())
	result, err := engine.Sync(ctx, peer, cancel)
	if err != nil {
		return result, err
	}
	watermark := types.SyncWatermark{RemoteID: remoteID, NLeaves: result.NewRemoteN, Root: result.NewRemoteRoot, AckedAt: time.Now()}
	if setErr := c.store.SetSyncWatermark(ctx, watermark); setErr != nil {
		return result, setErr
	}
	return result, nil
}

// SyncWatermark returns the last-recorded (root, n) pair acknowledged by
// remoteID, if any.
func (c *Core) SyncWatermark(ctx context.Context, remoteID string) (types.SyncWatermark, bool, error) {
	return c.store.SyncWatermark(ctx, remoteID)
}

// AsRemote exposes this Core's Merkle log as a syncproto.RemotePeer, for
// pairing two local Cores (e.g. the CLI's sync subcommand).
func (c *Core) AsRemote() syncproto.RemotePeer {
	return syncproto.NewRemote(c.store.Merkle())
}

// SetScoringWeights persists new weights into the Store's config table
// (surviving restarts, §4.8) and rebuilds the in-memory Disambiguator.
func (c *Core) SetScoringWeights(ctx context.Context, w types.ScoringWeights) error {
	normalized, err := w.Normalize()
	if err != nil {
		return err
	}
	resolver, err := score.New(c.store, normalized)
	if err != nil {
		return err
	}

	if err := c.store.SetConfig(ctx, "scoring.name_weight", fmtFloat(normalized.Name)); err != nil {
		return err
	}
	if err := c.store.SetConfig(ctx, "scoring.species_weight", fmtFloat(normalized.Species)); err != nil {
		return err
	}
	if err := c.store.SetConfig(ctx, "scoring.route_weight", fmtFloat(normalized.Route)); err != nil {
		return err
	}
	if err := c.store.SetConfig(ctx, "scoring.dose_weight", fmtFloat(normalized.Dose)); err != nil {
		return err
	}

	c.resolver = resolver
	c.manager = draft.New(c.store, normalizerAdapter{c.normalizer}, c.resolver, committer{c.store}, time.Now)
	return nil
}
