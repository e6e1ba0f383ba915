package sqlite

const schema = `
-- Probe results: one row per server per benchmark run
CREATE TABLE IF NOT EXISTS probe_results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    profile_name TEXT NOT NULL,
    server TEXT NOT NULL,
    latency_ms INTEGER,
    status TEXT NOT NULL,
    failure TEXT,
    tested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_probe_results_profile
    ON probe_results(profile_name, tested_at);
CREATE INDEX IF NOT EXISTS idx_probe_results_run
    ON probe_results(run_id);

-- Apply log: every attempt to change the system DNS configuration
CREATE TABLE IF NOT EXISTS apply_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    profile_name TEXT NOT NULL,
    servers TEXT NOT NULL,
    success BOOLEAN NOT NULL,
    error_message TEXT,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Active configuration singleton (id always 1)
CREATE TABLE IF NOT EXISTS active_config (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    profile_name TEXT NOT NULL,
    servers TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL,
    previous_name TEXT,
    previous_servers TEXT
);

-- Application settings
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// runMigrations applies the schema. Statements are idempotent so this is
// safe to run on every open.
func runMigrations(d *DB) error {
	_, err := d.db.Exec(schema)
	return err
}
