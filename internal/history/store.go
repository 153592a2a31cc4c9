// Package history persists snapshots of generated documents so a user can
// recover earlier versions of their site or print resume.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Snapshot kinds.
const (
	KindSite   = "site"
	KindResume = "resume"
)

// ErrNotFound is returned when no snapshot has the requested ID.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one stored document version.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	Theme     string    `json:"theme,omitempty"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists snapshots. Save assigns ID and CreatedAt when unset.
type Store interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	Get(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	List(ctx context.Context, kind string, limit int) ([]*Snapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Close() error
}
