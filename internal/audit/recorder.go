package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit records.
//
// It MUST be append-only. No Update/Delete methods are provided by design;
// downstream reporting reads the table directly and is out of scope here.

type Repository interface {
	Append(ctx context.Context, r Record) error
}

// Recorder appends audit records durably.
//
// Callers should treat audit logging as best-effort relative to the primary
// mutation: the mutation has already committed by the time Append runs, and
// an append failure must not undo it.

type Recorder struct {
	repo  Repository
	clock func() time.Time
}

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, clock: time.Now}
}

var ErrInvalidRecord = errors.New("audit: invalid record")

// Append fills in ID and CreatedAt when absent and persists the record.
func (r *Recorder) Append(ctx context.Context, rec Record) error {
	if r.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if rec.Action == "" {
		return ErrInvalidRecord
	}
	if rec.TableName == "" {
		return ErrInvalidRecord
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.clock().UTC()
	}
	return r.repo.Append(ctx, rec)
}
