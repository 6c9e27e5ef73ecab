package store

import (
	"context"
	"database/sql"

	"github.com/clinistack/vetcore/internal/merkle"
	"github.com/clinistack/vetcore/internal/types"
	"github.com/clinistack/vetcore/internal/verr"
)

// querier is satisfied by both *sql.DB and *sql.Tx, letting merkleRepo
// run either as a direct-to-db reader or bound to one transaction for a
// Commit/IngestLeaf's multi-statement write sequence.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// merkleRepo implements merkle.NodeRepo against the store's schema.
type merkleRepo struct {
	q querier
}

var _ merkle.NodeRepo = (*merkleRepo)(nil)

// Merkle returns a read-oriented NodeRepo bound directly to the
// database — suitable for proof generation, RootAt, and the sync
// engine's Hello/Ack checks, none of which mutate state.
func (s *Store) Merkle() merkle.NodeRepo {
	return &merkleRepo{q: s.db}
}

// WithMerkleTx runs fn with a NodeRepo bound to a single transaction, so
// a multi-call sequence like merkle.Tree.Commit lands atomically.
func (s *Store) WithMerkleTx(ctx context.Context, fn func(merkle.NodeRepo) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&merkleRepo{q: tx})
	})
}

func (r *merkleRepo) NLeaves(ctx context.Context) (uint64, error) {
	var n uint64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM merkle_leaves`).Scan(&n)
	if err != nil {
		return 0, wrapErr("merkleRepo.NLeaves", err)
	}
	return n, nil
}

func (r *merkleRepo) LeafHash(ctx context.Context, seqNo uint64) ([32]byte, error) {
	var h []byte
	err := r.q.QueryRowContext(ctx, `SELECT hash FROM merkle_leaves WHERE seq_no = ?`, seqNo).Scan(&h)
	if err == sql.ErrNoRows {
		return [32]byte{}, verr.New("merkleRepo.LeafHash", verr.NotFound)
	}
	if err != nil {
		return [32]byte{}, wrapErr("merkleRepo.LeafHash", err)
	}
	return to32(h), nil
}

func (r *merkleRepo) LeafCanonical(ctx context.Context, seqNo uint64) ([]byte, error) {
	var canonical []byte
	err := r.q.QueryRowContext(ctx, `SELECT canonical FROM merkle_leaves WHERE seq_no = ?`, seqNo).Scan(&canonical)
	if err == sql.ErrNoRows {
		return nil, verr.New("merkleRepo.LeafCanonical", verr.NotFound)
	}
	if err != nil {
		return nil, wrapErr("merkleRepo.LeafCanonical", err)
	}
	return canonical, nil
}

func (r *merkleRepo) AppendLeaf(ctx context.Context, leafHash [32]byte, canonical []byte) (uint64, error) {
	var seqNo uint64
	err := r.q.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq_no) + 1, 0) FROM merkle_leaves`).Scan(&seqNo)
	if err != nil {
		return 0, wrapErr("merkleRepo.AppendLeaf", err)
	}
	_, err = r.q.ExecContext(ctx, `INSERT INTO merkle_leaves (seq_no, hash, canonical) VALUES (?, ?, ?)`, seqNo, leafHash[:], canonical)
	if err != nil {
		return 0, wrapErr("merkleRepo.AppendLeaf", err)
	}
	_, err = r.q.ExecContext(ctx, `INSERT INTO merkle_nodes (hash, kind, seq_no, height) VALUES (?, ?, ?, 0)`,
		leafHash[:], string(types.NodeLeaf), seqNo)
	if err != nil {
		return 0, wrapErr("merkleRepo.AppendLeaf", err)
	}
	return seqNo, nil
}

func (r *merkleRepo) PutInternalNode(ctx context.Context, node types.MerkleNode) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO merkle_nodes (hash, kind, left_hash, right_hash, height)
		VALUES (?, ?, ?, ?, ?)
	`, node.Hash[:], string(types.NodeInternal), node.Left[:], node.Right[:], node.Height)
	return wrapErr("merkleRepo.PutInternalNode", err)
}

func (r *merkleRepo) GetNode(ctx context.Context, hash [32]byte) (types.MerkleNode, bool, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT kind, seq_no, left_hash, right_hash, height FROM merkle_nodes WHERE hash = ?
	`, hash[:])

	var kind string
	var seqNo sql.NullInt64
	var left, right []byte
	var height int
	err := row.Scan(&kind, &seqNo, &left, &right, &height)
	if err == sql.ErrNoRows {
		return types.MerkleNode{}, false, nil
	}
	if err != nil {
		return types.MerkleNode{}, false, wrapErr("merkleRepo.GetNode", err)
	}

	node := types.MerkleNode{Hash: hash, Kind: types.NodeKind(kind), Height: height}
	if seqNo.Valid {
		n := uint64(seqNo.Int64)
		node.SeqNo = &n
	}
	if left != nil {
		l := to32(left)
		node.Left = &l
	}
	if right != nil {
		rh := to32(right)
		node.Right = &rh
	}
	return node, true, nil
}

func (r *merkleRepo) Frontier(ctx context.Context) ([]merkle.FrontierEntry, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT height, lo, hash FROM merkle_frontier ORDER BY position ASC`)
	if err != nil {
		return nil, wrapErr("merkleRepo.Frontier", err)
	}
	defer rows.Close()

	var out []merkle.FrontierEntry
	for rows.Next() {
		var e merkle.FrontierEntry
		var hash []byte
		if err := rows.Scan(&e.Height, &e.Lo, &hash); err != nil {
			return nil, wrapErr("merkleRepo.Frontier", err)
		}
		e.Hash = to32(hash)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *merkleRepo) SetFrontier(ctx context.Context, frontier []merkle.FrontierEntry) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM merkle_frontier`); err != nil {
		return wrapErr("merkleRepo.SetFrontier", err)
	}
	for i, e := range frontier {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO merkle_frontier (position, height, lo, hash) VALUES (?, ?, ?, ?)
		`, i, e.Height, e.Lo, e.Hash[:])
		if err != nil {
			return wrapErr("merkleRepo.SetFrontier", err)
		}
	}
	return nil
}

func (r *merkleRepo) PutRangeHash(ctx context.Context, lo, hi uint64, hash [32]byte) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO merkle_range_cache (lo, hi, hash) VALUES (?, ?, ?)
	`, lo, hi, hash[:])
	return wrapErr("merkleRepo.PutRangeHash", err)
}

func (r *merkleRepo) RangeHash(ctx context.Context, lo, hi uint64) ([32]byte, bool, error) {
	var hash []byte
	err := r.q.QueryRowContext(ctx, `SELECT hash FROM merkle_range_cache WHERE lo = ? AND hi = ?`, lo, hi).Scan(&hash)
	if err == sql.ErrNoRows {
		return [32]byte{}, false, nil
	}
	if err != nil {
		return [32]byte{}, false, wrapErr("merkleRepo.RangeHash", err)
	}
	return to32(hash), true, nil
}

func (r *merkleRepo) SetRoot(ctx context.Context, hash [32]byte, n uint64) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO merkle_root (id, hash, n_leaves) VALUES (0, ?, ?)
		ON CONFLICT(id) DO UPDATE SET hash = excluded.hash, n_leaves = excluded.n_leaves
	`, hash[:], n)
	return wrapErr("merkleRepo.SetRoot", err)
}

func (r *merkleRepo) Root(ctx context.Context) ([32]byte, uint64, error) {
	var hash []byte
	var n uint64
	err := r.q.QueryRowContext(ctx, `SELECT hash, n_leaves FROM merkle_root WHERE id = 0`).Scan(&hash, &n)
	if err == sql.ErrNoRows {
		return [32]byte{}, 0, nil
	}
	if err != nil {
		return [32]byte{}, 0, wrapErr("merkleRepo.Root", err)
	}
	return to32(hash), n, nil
}

func to32(b []byte) [32]byte {
	var out [32]byte
	copy(out[:], b)
	return out
}
