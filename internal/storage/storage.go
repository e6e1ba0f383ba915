package storage

import (
	"context"

	"dnsjumper/internal/storage/models"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Probe history operations
	RecordProbe(ctx context.Context, rec *models.ProbeRecord) error
	ProbeHistory(ctx context.Context, profileName string, limit int) ([]*models.ProbeRecord, error)
	LatestRunID(ctx context.Context) (string, error)

	// Apply log operations
	RecordApply(ctx context.Context, rec *models.ApplyRecord) error
	ApplyHistory(ctx context.Context, limit int) ([]*models.ApplyRecord, error)

	// Active configuration (singleton row)
	SetActiveConfig(ctx context.Context, cfg *models.ActiveConfig) error
	GetActiveConfig(ctx context.Context) (*models.ActiveConfig, error)
	ClearActiveConfig(ctx context.Context) error

	// Settings operations
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Transactions
	BeginTx(ctx context.Context) (Transaction, error)

	// Close closes the storage connection
	Close() error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Storage
}
