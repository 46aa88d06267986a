package store

// Results database schema. One row per run plus one row per emitted
// output line, so downstream tooling can diff consecutive extractions.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	ran_at      TEXT NOT NULL,
	host        TEXT NOT NULL,
	description TEXT NOT NULL,
	line_count  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_lines (
	run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq    INTEGER NOT NULL,
	line   TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_run_lines_run ON run_lines(run_id);
`
