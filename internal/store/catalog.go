package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clinistack/vetcore/internal/types"
)

// UpsertCatalogItem inserts or replaces one SKU's catalog row.
func (s *Store) UpsertCatalogItem(ctx context.Context, item types.CatalogItem) error {
	aliases, err := json.Marshal(item.Aliases)
	if err != nil {
		return fmt.Errorf("marshal aliases: %w", err)
	}
	species, err := json.Marshal(item.Species)
	if err != nil {
		return fmt.Errorf("marshal species: %w", err)
	}
	routes, err := json.Marshal(item.Routes)
	if err != nil {
		return fmt.Errorf("marshal routes: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO catalog (sku, canonical_name, aliases_json, concentration, species_json, routes_json, dose_min_mg_per_kg, dose_max_mg_per_kg)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(sku) DO UPDATE SET
				canonical_name = excluded.canonical_name,
				aliases_json = excluded.aliases_json,
				concentration = excluded.concentration,
				species_json = excluded.species_json,
				routes_json = excluded.routes_json,
				dose_min_mg_per_kg = excluded.dose_min_mg_per_kg,
				dose_max_mg_per_kg = excluded.dose_max_mg_per_kg
		`, item.SKU, item.CanonicalName, string(aliases), item.Concentration, string(species), string(routes), item.DoseMinMgPerKg, item.DoseMaxMgPerKg)
		return wrapErr("store.UpsertCatalogItem", err)
	})
}

// GetCatalogItem fetches one SKU.
func (s *Store) GetCatalogItem(ctx context.Context, sku string) (types.CatalogItem, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT sku, canonical_name, aliases_json, concentration, species_json, routes_json, dose_min_mg_per_kg, dose_max_mg_per_kg
		FROM catalog WHERE sku = ?
	`, sku)
	item, err := scanCatalogItem(row)
	if err == sql.ErrNoRows {
		return types.CatalogItem{}, false, nil
	}
	if err != nil {
		return types.CatalogItem{}, false, wrapErr("store.GetCatalogItem", err)
	}
	return item, true, nil
}

// FTSCandidates implements catalog.Lookup: it ORs tokens across the
// catalog_fts shadow index and hands back the hydrated catalog rows for
// the Search ranking pass to classify and score.
func (s *Store) FTSCandidates(tokens []string) ([]types.CatalogItem, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	ctx := context.Background()

	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"` + "*"
	}
	matchQuery := strings.Join(quoted, " OR ")

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.sku, c.canonical_name, c.aliases_json, c.concentration, c.species_json, c.routes_json, c.dose_min_mg_per_kg, c.dose_max_mg_per_kg
		FROM catalog_fts f
		JOIN catalog c ON c.rowid = f.rowid
		WHERE catalog_fts MATCH ?
	`, matchQuery)
	if err != nil {
		return nil, wrapErr("store.FTSCandidates", err)
	}
	defer rows.Close()

	var items []types.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, wrapErr("store.FTSCandidates", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogItem(row rowScanner) (types.CatalogItem, error) {
	var item types.CatalogItem
	var aliases, species, routes string
	if err := row.Scan(&item.SKU, &item.CanonicalName, &aliases, &item.Concentration, &species, &routes, &item.DoseMinMgPerKg, &item.DoseMaxMgPerKg); err != nil {
		return types.CatalogItem{}, err
	}
	_ = json.Unmarshal([]byte(aliases), &item.Aliases)
	_ = json.Unmarshal([]byte(species), &item.Species)
	_ = json.Unmarshal([]byte(routes), &item.Routes)
	return item, nil
}

// UpsertAliasOverride records a per-clinic alias consulted before the
// built-in map.
func (s *Store) UpsertAliasOverride(ctx context.Context, o types.AliasOverride) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO alias_overrides (alias, canonical) VALUES (?, ?)
			ON CONFLICT(alias) DO UPDATE SET canonical = excluded.canonical
		`, o.Alias, o.Canonical)
		return wrapErr("store.UpsertAliasOverride", err)
	})
}

// AliasOverride looks up one clinic-specific alias, if any.
func (s *Store) AliasOverride(ctx context.Context, alias string) (string, bool, error) {
	var canonical string
	err := s.db.QueryRowContext(ctx, `SELECT canonical FROM alias_overrides WHERE alias = ?`, alias).Scan(&canonical)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr("store.AliasOverride", err)
	}
	return canonical, true, nil
}
