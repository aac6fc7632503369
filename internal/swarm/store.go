package swarm

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const currentSchemaVersion = 2

// openStore opens (creating if absent) the sqlite database at path and
// ensures the schema exists at the current version, migrating v1 -> v2
// idempotently per spec.md §4.2.6.
func openStore(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open swarm store: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite: single writer, avoid internal contention

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id            TEXT PRIMARY KEY,
	description   TEXT NOT NULL,
	status        TEXT NOT NULL,
	claimed_by    TEXT,
	claimed_at    INTEGER,
	completed_at  INTEGER,
	priority      INTEGER NOT NULL DEFAULT 0,
	wave          INTEGER NOT NULL DEFAULT 1,
	owned_files   TEXT,
	file_patterns TEXT,
	result        TEXT,
	error         TEXT
);

CREATE TABLE IF NOT EXISTS heartbeats (
	agent_id        TEXT PRIMARY KEY,
	last_heartbeat  INTEGER NOT NULL,
	current_task_id TEXT
);

CREATE TABLE IF NOT EXISTS session (
	session_id   TEXT PRIMARY KEY,
	started_at   INTEGER NOT NULL,
	completed_at INTEGER,
	agent_count  INTEGER NOT NULL,
	active       INTEGER NOT NULL
);
`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	version, err := schemaVersion(db)
	if err != nil {
		return err
	}
	if version == 0 {
		// Fresh database: stamp current version directly, no migration
		// needed.
		if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('version', ?)`, fmt.Sprintf("%d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("stamp schema version: %w", err)
		}
		return nil
	}
	if version == 1 {
		return migrateV1ToV2(db)
	}
	return nil
}

func schemaVersion(db *sqlx.DB) (int, error) {
	var value string
	err := db.Get(&value, `SELECT value FROM meta WHERE key = 'version'`)
	if err != nil {
		return 0, nil // absent: treat as fresh (version 0)
	}
	var v int
	if _, err := fmt.Sscanf(value, "%d", &v); err != nil {
		return 0, nil
	}
	return v, nil
}

// migrateV1ToV2 adds the four v2 columns idempotently (checking presence
// via PRAGMA table_info before ALTER), preserving existing rows, per
// spec.md §4.2.6. Re-running is a no-op.
func migrateV1ToV2(db *sqlx.DB) error {
	existing := map[string]bool{}
	rows, err := db.Queryx(`PRAGMA table_info(tasks)`)
	if err != nil {
		return fmt.Errorf("inspect tasks columns: %w", err)
	}
	for rows.Next() {
		cols, err := rows.SliceScan()
		if err != nil {
			rows.Close()
			return err
		}
		// column name is index 1 in PRAGMA table_info output.
		if name, ok := cols[1].(string); ok {
			existing[name] = true
		}
	}
	rows.Close()

	additions := []struct {
		name string
		ddl  string
	}{
		{"priority", "ALTER TABLE tasks ADD COLUMN priority INTEGER NOT NULL DEFAULT 0"},
		{"wave", "ALTER TABLE tasks ADD COLUMN wave INTEGER NOT NULL DEFAULT 1"},
		{"owned_files", "ALTER TABLE tasks ADD COLUMN owned_files TEXT"},
		{"file_patterns", "ALTER TABLE tasks ADD COLUMN file_patterns TEXT"},
	}
	for _, add := range additions {
		if existing[add.name] {
			continue
		}
		if _, err := db.Exec(add.ddl); err != nil {
			return fmt.Errorf("migrate add column %s: %w", add.name, err)
		}
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('version', ?)`, fmt.Sprintf("%d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return nil
}
