package sqlite

// Schema DDL for the trace store.
const (
	createRuns = `CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    type_label TEXT NOT NULL,
    type_count INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createSamples = `CREATE TABLE IF NOT EXISTS samples (
    run_id TEXT NOT NULL,
    sample INTEGER NOT NULL,
    newick TEXT NOT NULL,
    tree_json TEXT NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (run_id, sample),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);`
)

var schemaStatements = []string{
	createRuns,
	createSamples,
}
