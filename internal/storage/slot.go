// Package storage persists the workout store. The store serializes to a
// single durable slot that is read once at startup and rewritten wholesale
// on every mutation; backends also keep a log of backup imports.
package storage

import (
	"context"
	"time"
)

// slotKey names the single slot the workout store lives in.
const slotKey = "store"

// Slot is the durable key-value slot holding the serialized store.
type Slot interface {
	// Load reads the current payload. found is false when nothing has
	// been saved yet.
	Load(ctx context.Context) (data []byte, found bool, err error)
	// Save rewrites the payload wholesale and bumps the revision.
	Save(ctx context.Context, data []byte) error
	// Revision returns the current save counter, 0 before the first save.
	Revision(ctx context.Context) (int64, error)
}

// Backend is a full persistence backend: the store slot plus the import
// history log.
type Backend interface {
	Slot
	InsertImportRecord(ctx context.Context, rec ImportRecord) (int64, error)
	QueryImportRecords(ctx context.Context, limit int) ([]ImportRecord, error)
	Close() error
}

// ImportRecord represents a single backup import's outcome.
type ImportRecord struct {
	ID              int64     `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Source          string    `json:"source"`
	Mode            string    `json:"mode"`
	Status          string    `json:"status"`
	SessionsAdded   int       `json:"sessions_added"`
	SessionsSkipped int       `json:"sessions_skipped"`
	ErrorMessage    *string   `json:"error_message,omitempty"`
}
