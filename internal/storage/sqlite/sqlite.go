package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dnsjumper/internal/storage"
	"dnsjumper/internal/storage/models"
)

// dbHandle is the common interface between *sql.DB and *sql.Tx.
type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB implements the Storage interface using SQLite
type DB struct {
	db *sql.DB
}

// New creates a new SQLite storage instance
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &DB{db: db}

	if err := runMigrations(store); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) handle() dbHandle { return d.db }

// BeginTx starts a new transaction
func (d *DB) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Tx implements the Transaction interface
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error    { return t.tx.Commit() }
func (t *Tx) Rollback() error  { return t.tx.Rollback() }
func (t *Tx) handle() dbHandle { return t.tx }

func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *Tx) Close() error { return nil }

// ─── Probe history operations ───────────────────────────────────────────────

func (d *DB) RecordProbe(ctx context.Context, rec *models.ProbeRecord) error {
	return recordProbe(ctx, d.handle(), rec)
}
func (t *Tx) RecordProbe(ctx context.Context, rec *models.ProbeRecord) error {
	return recordProbe(ctx, t.handle(), rec)
}

func recordProbe(ctx context.Context, h dbHandle, rec *models.ProbeRecord) error {
	if rec.TestedAt.IsZero() {
		rec.TestedAt = time.Now()
	}
	query := `
		INSERT INTO probe_results (run_id, profile_name, server, latency_ms, status, failure, tested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := h.ExecContext(ctx, query,
		rec.RunID, rec.ProfileName, rec.Server, rec.LatencyMS, rec.Status, rec.Failure, rec.TestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record probe: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

func (d *DB) ProbeHistory(ctx context.Context, profileName string, limit int) ([]*models.ProbeRecord, error) {
	return probeHistory(ctx, d.handle(), profileName, limit)
}
func (t *Tx) ProbeHistory(ctx context.Context, profileName string, limit int) ([]*models.ProbeRecord, error) {
	return probeHistory(ctx, t.handle(), profileName, limit)
}

func probeHistory(ctx context.Context, h dbHandle, profileName string, limit int) ([]*models.ProbeRecord, error) {
	query := `
		SELECT id, run_id, profile_name, server, latency_ms, status, failure, tested_at
		FROM probe_results
		WHERE profile_name = ?
		ORDER BY tested_at DESC, id DESC
		LIMIT ?
	`
	rows, err := h.QueryContext(ctx, query, profileName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ProbeRecord
	for rows.Next() {
		rec := &models.ProbeRecord{}
		var failure sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.ProfileName, &rec.Server,
			&rec.LatencyMS, &rec.Status, &failure, &rec.TestedAt,
		); err != nil {
			return nil, err
		}
		rec.Failure = failure.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (d *DB) LatestRunID(ctx context.Context) (string, error) {
	return latestRunID(ctx, d.handle())
}
func (t *Tx) LatestRunID(ctx context.Context) (string, error) {
	return latestRunID(ctx, t.handle())
}

func latestRunID(ctx context.Context, h dbHandle) (string, error) {
	var runID string
	err := h.QueryRowContext(ctx,
		`SELECT run_id FROM probe_results ORDER BY id DESC LIMIT 1`,
	).Scan(&runID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return runID, nil
}

// ─── Apply log operations ───────────────────────────────────────────────────

func (d *DB) RecordApply(ctx context.Context, rec *models.ApplyRecord) error {
	return recordApply(ctx, d.handle(), rec)
}
func (t *Tx) RecordApply(ctx context.Context, rec *models.ApplyRecord) error {
	return recordApply(ctx, t.handle(), rec)
}

func recordApply(ctx context.Context, h dbHandle, rec *models.ApplyRecord) error {
	if rec.AppliedAt.IsZero() {
		rec.AppliedAt = time.Now()
	}
	servers, err := json.Marshal(rec.Servers)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO apply_log (profile_name, servers, success, error_message, applied_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := h.ExecContext(ctx, query,
		rec.ProfileName, string(servers), rec.Success, rec.ErrorMessage, rec.AppliedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record apply: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

func (d *DB) ApplyHistory(ctx context.Context, limit int) ([]*models.ApplyRecord, error) {
	return applyHistory(ctx, d.handle(), limit)
}
func (t *Tx) ApplyHistory(ctx context.Context, limit int) ([]*models.ApplyRecord, error) {
	return applyHistory(ctx, t.handle(), limit)
}

func applyHistory(ctx context.Context, h dbHandle, limit int) ([]*models.ApplyRecord, error) {
	query := `
		SELECT id, profile_name, servers, success, error_message, applied_at
		FROM apply_log
		ORDER BY applied_at DESC, id DESC
		LIMIT ?
	`
	rows, err := h.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ApplyRecord
	for rows.Next() {
		rec := &models.ApplyRecord{}
		var servers string
		var errMsg sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.ProfileName, &servers, &rec.Success, &errMsg, &rec.AppliedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(servers), &rec.Servers); err != nil {
			return nil, fmt.Errorf("corrupt servers column: %w", err)
		}
		rec.ErrorMessage = errMsg.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ─── Active configuration ───────────────────────────────────────────────────

func (d *DB) SetActiveConfig(ctx context.Context, cfg *models.ActiveConfig) error {
	return setActiveConfig(ctx, d.handle(), cfg)
}
func (t *Tx) SetActiveConfig(ctx context.Context, cfg *models.ActiveConfig) error {
	return setActiveConfig(ctx, t.handle(), cfg)
}

func setActiveConfig(ctx context.Context, h dbHandle, cfg *models.ActiveConfig) error {
	servers, err := json.Marshal(cfg.Servers)
	if err != nil {
		return err
	}
	var prevServers interface{}
	if cfg.PreviousServers != nil {
		data, err := json.Marshal(cfg.PreviousServers)
		if err != nil {
			return err
		}
		prevServers = string(data)
	}
	query := `
		INSERT INTO active_config (id, profile_name, servers, applied_at, previous_name, previous_servers)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			profile_name = excluded.profile_name,
			servers = excluded.servers,
			applied_at = excluded.applied_at,
			previous_name = excluded.previous_name,
			previous_servers = excluded.previous_servers
	`
	_, err = h.ExecContext(ctx, query,
		cfg.ProfileName, string(servers), cfg.AppliedAt, cfg.PreviousName, prevServers,
	)
	if err != nil {
		return fmt.Errorf("failed to set active config: %w", err)
	}
	return nil
}

func (d *DB) GetActiveConfig(ctx context.Context) (*models.ActiveConfig, error) {
	return getActiveConfig(ctx, d.handle())
}
func (t *Tx) GetActiveConfig(ctx context.Context) (*models.ActiveConfig, error) {
	return getActiveConfig(ctx, t.handle())
}

func getActiveConfig(ctx context.Context, h dbHandle) (*models.ActiveConfig, error) {
	query := `
		SELECT profile_name, servers, applied_at, previous_name, previous_servers
		FROM active_config WHERE id = 1
	`
	cfg := &models.ActiveConfig{}
	var servers string
	var prevName, prevServers sql.NullString
	err := h.QueryRowContext(ctx, query).Scan(
		&cfg.ProfileName, &servers, &cfg.AppliedAt, &prevName, &prevServers,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(servers), &cfg.Servers); err != nil {
		return nil, fmt.Errorf("corrupt servers column: %w", err)
	}
	cfg.PreviousName = prevName.String
	if prevServers.Valid && prevServers.String != "" {
		if err := json.Unmarshal([]byte(prevServers.String), &cfg.PreviousServers); err != nil {
			return nil, fmt.Errorf("corrupt previous_servers column: %w", err)
		}
	}
	return cfg, nil
}

func (d *DB) ClearActiveConfig(ctx context.Context) error {
	return clearActiveConfig(ctx, d.handle())
}
func (t *Tx) ClearActiveConfig(ctx context.Context) error {
	return clearActiveConfig(ctx, t.handle())
}

func clearActiveConfig(ctx context.Context, h dbHandle) error {
	_, err := h.ExecContext(ctx, `DELETE FROM active_config WHERE id = 1`)
	return err
}

// ─── Settings operations ────────────────────────────────────────────────────

func (d *DB) GetSetting(ctx context.Context, key string) (string, error) {
	return getSetting(ctx, d.handle(), key)
}
func (t *Tx) GetSetting(ctx context.Context, key string) (string, error) {
	return getSetting(ctx, t.handle(), key)
}

func getSetting(ctx context.Context, h dbHandle, key string) (string, error) {
	var value string
	err := h.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting not found: %s", key)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (d *DB) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, d.handle(), key, value)
}
func (t *Tx) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, t.handle(), key, value)
}

func setSetting(ctx context.Context, h dbHandle, key, value string) error {
	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	_, err := h.ExecContext(ctx, query, key, value)
	return err
}
