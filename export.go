package vetcore

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/clinistack/vetcore/internal/merkle"
	"github.com/clinistack/vetcore/internal/types"
)

// BillingLine is one exported billing row: a committed encounter's draft
// id, patient id, and line items.
type BillingLine struct {
	DraftID   string           `json:"draft_id"`
	PatientID string           `json:"patient_id"`
	LineItems []types.LineItem `json:"line_items"`
}

// ComplianceEncounter pairs a reviewed encounter with the inclusion proof
// for its position in the log, for the compliance export's full ordered
// list.
type ComplianceEncounter struct {
	SeqNo     uint64                  `json:"seq_no"`
	Encounter types.ReviewedEncounter `json:"encounter"`
	LeafHash  [32]byte                `json:"leaf_hash"`
	Proof     merkle.Proof            `json:"proof"`
}

// ComplianceExport is a self-verifying audit document: format metadata
// plus the full ordered encounter list with proofs.
type ComplianceExport struct {
	FormatVersion string                `json:"format_version"`
	ExportedAt    time.Time             `json:"exported_at"`
	HashAlgorithm string                `json:"hash_algorithm"`
	RootHash      [32]byte              `json:"root_hash"`
	NLeaves       uint64                `json:"n_leaves"`
	Encounters    []ComplianceEncounter `json:"encounters"`
}

// allEncounters decodes every leaf currently in the log, in sequence
// order.
func (c *Core) allEncounters(ctx context.Context) ([]types.ReviewedEncounter, uint64, error) {
	repo := c.store.Merkle()
	n, err := repo.NLeaves(ctx)
	if err != nil {
		return nil, 0, err
	}

	encounters := make([]types.ReviewedEncounter, 0, n)
	for seqNo := uint64(0); seqNo < n; seqNo++ {
		canonical, err := repo.LeafCanonical(ctx, seqNo)
		if err != nil {
			return nil, 0, err
		}
		e, err := merkle.Decode(canonical)
		if err != nil {
			return nil, 0, err
		}
		encounters = append(encounters, e)
	}
	return encounters, n, nil
}

// ExportBillingJSON returns every committed encounter as a stable
// {draft_id, patient_id, line_items[]} JSON array.
func (c *Core) ExportBillingJSON(ctx context.Context) ([]byte, error) {
	lines, err := c.billingLines(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(lines)
}

// ExportBillingCSV returns the same billing rows flattened to CSV: one
// row per line item, columns draft_id, patient_id, sku, quantity, unit,
// route, species.
func (c *Core) ExportBillingCSV(ctx context.Context) ([]byte, error) {
	lines, err := c.billingLines(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"draft_id", "patient_id", "sku", "quantity", "unit", "route", "species"}); err != nil {
		return nil, err
	}
	for _, l := range lines {
		for _, item := range l.LineItems {
			row := []string{
				l.DraftID,
				l.PatientID,
				item.SKU,
				strconv.FormatFloat(item.Quantity, 'g', -1, 64),
				item.Unit,
				item.Route,
				item.Species,
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Core) billingLines(ctx context.Context) ([]BillingLine, error) {
	encounters, _, err := c.allEncounters(ctx)
	if err != nil {
		return nil, err
	}

	lines := make([]BillingLine, 0, len(encounters))
	for _, e := range encounters {
		lines = append(lines, BillingLine{
			DraftID:   e.DraftID,
			PatientID: e.Patient.ID,
			LineItems: e.LineItems,
		})
	}
	return lines, nil
}

// ExportCompliance returns a compliance report: format metadata, the
// current root/leaf count, and the full ordered encounter list each
// carrying its own inclusion proof against that root.
func (c *Core) ExportCompliance(ctx context.Context, now time.Time) (ComplianceExport, error) {
	encounters, n, err := c.allEncounters(ctx)
	if err != nil {
		return ComplianceExport{}, err
	}
	root, _, err := c.Root(ctx)
	if err != nil {
		return ComplianceExport{}, err
	}

	out := ComplianceExport{
		FormatVersion: "1.0",
		ExportedAt:    now,
		HashAlgorithm: "SHA-256",
		RootHash:      root,
		NLeaves:       n,
		Encounters:    make([]ComplianceEncounter, 0, len(encounters)),
	}

	for seqNo, e := range encounters {
		leafHash := merkle.LeafHash(merkle.Encode(e))
		proof, err := c.GenerateProof(ctx, uint64(seqNo))
		if err != nil {
			return ComplianceExport{}, fmt.Errorf("export compliance: proof for seq %d: %w", seqNo, err)
		}
		out.Encounters = append(out.Encounters, ComplianceEncounter{
			SeqNo:     uint64(seqNo),
			Encounter: e,
			LeafHash:  leafHash,
			Proof:     proof,
		})
	}

	return out, nil
}
