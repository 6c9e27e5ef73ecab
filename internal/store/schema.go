package store

// schema defines the SQLite database layout for the offline core: the
// drug catalog (with an FTS5 shadow index), patients, encounter drafts,
// the Merkle log tables, and the sync watermark bookkeeping.
const schema = `
CREATE TABLE IF NOT EXISTS catalog (
    sku                 TEXT PRIMARY KEY,
    canonical_name      TEXT NOT NULL,
    aliases_json        TEXT NOT NULL DEFAULT '[]',
    concentration       TEXT NOT NULL DEFAULT '',
    species_json        TEXT NOT NULL DEFAULT '[]',
    routes_json         TEXT NOT NULL DEFAULT '[]',
    dose_min_mg_per_kg  REAL,
    dose_max_mg_per_kg  REAL
);

CREATE VIRTUAL TABLE IF NOT EXISTS catalog_fts USING fts5(
    sku UNINDEXED,
    canonical_name,
    aliases,
    content=''
);

CREATE TRIGGER IF NOT EXISTS catalog_ai AFTER INSERT ON catalog BEGIN
    INSERT INTO catalog_fts(rowid, sku, canonical_name, aliases)
    VALUES (new.rowid, new.sku, new.canonical_name, new.aliases_json);
END;

CREATE TRIGGER IF NOT EXISTS catalog_ad AFTER DELETE ON catalog BEGIN
    INSERT INTO catalog_fts(catalog_fts, rowid, sku, canonical_name, aliases)
    VALUES ('delete', old.rowid, old.sku, old.canonical_name, old.aliases_json);
END;

CREATE TRIGGER IF NOT EXISTS catalog_au AFTER UPDATE ON catalog BEGIN
    INSERT INTO catalog_fts(catalog_fts, rowid, sku, canonical_name, aliases)
    VALUES ('delete', old.rowid, old.sku, old.canonical_name, old.aliases_json);
    INSERT INTO catalog_fts(rowid, sku, canonical_name, aliases)
    VALUES (new.rowid, new.sku, new.canonical_name, new.aliases_json);
END;

CREATE TABLE IF NOT EXISTS alias_overrides (
    alias       TEXT PRIMARY KEY,
    canonical   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS patients (
    local_id    TEXT PRIMARY KEY,
    server_id   TEXT UNIQUE,
    name        TEXT NOT NULL DEFAULT '',
    species     TEXT NOT NULL DEFAULT '',
    weight_kg   REAL
);

CREATE TABLE IF NOT EXISTS drafts (
    draft_id            TEXT PRIMARY KEY,
    patient_local_id    TEXT NOT NULL REFERENCES patients(local_id),
    transcript          TEXT NOT NULL DEFAULT '',
    items_json          TEXT NOT NULL DEFAULT '[]',
    status              TEXT NOT NULL,
    reviewer_id         TEXT NOT NULL DEFAULT '',
    created_at          TEXT NOT NULL,
    closed_at           TEXT
);

CREATE INDEX IF NOT EXISTS idx_drafts_status ON drafts(status);

CREATE TABLE IF NOT EXISTS merkle_leaves (
    seq_no      INTEGER PRIMARY KEY,
    hash        BLOB NOT NULL UNIQUE,
    canonical   BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS merkle_nodes (
    hash        BLOB PRIMARY KEY,
    kind        TEXT NOT NULL,
    seq_no      INTEGER,
    left_hash   BLOB,
    right_hash  BLOB,
    height      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS merkle_range_cache (
    lo          INTEGER NOT NULL,
    hi          INTEGER NOT NULL,
    hash        BLOB NOT NULL,
    PRIMARY KEY (lo, hi)
);

CREATE TABLE IF NOT EXISTS merkle_frontier (
    position    INTEGER PRIMARY KEY,
    height      INTEGER NOT NULL,
    lo          INTEGER NOT NULL,
    hash        BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS merkle_root (
    id          INTEGER PRIMARY KEY CHECK (id = 0),
    hash        BLOB NOT NULL,
    n_leaves    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_watermarks (
    remote_id   TEXT PRIMARY KEY,
    root        BLOB NOT NULL,
    n_leaves    INTEGER NOT NULL,
    acked_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS config (
    key         TEXT PRIMARY KEY,
    value       TEXT NOT NULL
);
`
