package mutate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fieldops-platform/internal/audit"
)

// Service wraps every state change to one entity type with the audit
// contract: read current state, apply the change, persist, then log old and
// new values. Exactly one audit append is attempted per successful mutation,
// and the store write strictly precedes it, so the ledger never records a
// change that did not happen.
//
// There is no transaction spanning the store and the recorder. A crash
// between the two leaves the mutation committed and the audit record
// missing; that window is accepted and surfaced via Outcome rather than
// rolled back.
//
// The service holds no locks and no state beyond its injected
// collaborators; concurrent calls interleave at the store
// (last-write-wins).
type Service[T Record] struct {
	store Store[T]
	rec   *audit.Recorder
	table string
	log   *slog.Logger
}

func NewService[T Record](store Store[T], rec *audit.Recorder, table string, log *slog.Logger) *Service[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Service[T]{store: store, rec: rec, table: table, log: log}
}

// Create persists a new record and logs it with a null old snapshot and the
// created row as the new snapshot. Nothing is written when the actor is
// missing or the store create fails.
func (s *Service[T]) Create(ctx context.Context, rec T, desc string, actor Actor) (T, Outcome, error) {
	var zero T
	if actor.UserID == "" {
		return zero, Outcome{}, fmt.Errorf("%w: actor user id", ErrValidation)
	}

	created, err := s.store.Create(ctx, rec)
	if err != nil {
		return zero, Outcome{}, wrapStore(err)
	}

	out := s.append(ctx, audit.Record{
		UserID:      actor.UserID,
		Action:      audit.ActionCreate,
		Description: desc,
		TableName:   s.table,
		RecordID:    created.RecordID(),
		NewValues:   snapshot(created),
		IPAddress:   actor.IPAddress,
	})
	return created, out, nil
}

// Update merges the caller's change into the current row via apply and
// persists the result. The audit record pairs the pre-update snapshot with
// the caller's intended payload: intent is logged as supplied, even when the
// merge rule resolves differently. The returned snapshot is re-fetched from
// the store so it carries store-computed fields such as updated_at.
func (s *Service[T]) Update(ctx context.Context, id string, apply func(T) T, intended any, desc string, actor Actor) (T, Outcome, error) {
	var zero T
	if id == "" {
		return zero, Outcome{}, fmt.Errorf("%w: record id", ErrValidation)
	}
	if actor.UserID == "" {
		return zero, Outcome{}, fmt.Errorf("%w: actor user id", ErrValidation)
	}

	pre, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, Outcome{}, wrapStore(err)
	}

	if err := s.store.Update(ctx, apply(pre)); err != nil {
		return zero, Outcome{}, wrapStore(err)
	}

	post, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, Outcome{}, wrapStore(err)
	}

	out := s.append(ctx, audit.Record{
		UserID:      actor.UserID,
		Action:      audit.ActionUpdate,
		Description: desc,
		TableName:   s.table,
		RecordID:    id,
		OldValues:   snapshot(pre),
		NewValues:   snapshot(intended),
		IPAddress:   actor.IPAddress,
	})
	return post, out, nil
}

// Delete removes the record and logs its final snapshot. Deletion is
// terminal; there is no soft-delete or tombstone.
func (s *Service[T]) Delete(ctx context.Context, id string, desc string, actor Actor) (T, Outcome, error) {
	var zero T
	if id == "" {
		return zero, Outcome{}, fmt.Errorf("%w: record id", ErrValidation)
	}
	if actor.UserID == "" {
		return zero, Outcome{}, fmt.Errorf("%w: actor user id", ErrValidation)
	}

	pre, err := s.store.Get(ctx, id)
	if err != nil {
		return zero, Outcome{}, wrapStore(err)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return zero, Outcome{}, wrapStore(err)
	}

	out := s.append(ctx, audit.Record{
		UserID:      actor.UserID,
		Action:      audit.ActionDelete,
		Description: desc,
		TableName:   s.table,
		RecordID:    id,
		OldValues:   snapshot(pre),
		IPAddress:   actor.IPAddress,
	})
	return pre, out, nil
}

// ReplaceByFilter applies a field replacement to every record matching the
// filter, for bulk attachments such as image lists. One audit record is
// written per call, keyed to the first match and carrying its pre-update
// snapshot.
func (s *Service[T]) ReplaceByFilter(ctx context.Context, f Filter, apply func(T) T, intended any, desc string, actor Actor) ([]T, Outcome, error) {
	if f.Field == "" || f.Value == "" {
		return nil, Outcome{}, fmt.Errorf("%w: filter criteria", ErrValidation)
	}
	if actor.UserID == "" {
		return nil, Outcome{}, fmt.Errorf("%w: actor user id", ErrValidation)
	}

	matches, err := s.store.FindBy(ctx, f)
	if err != nil {
		return nil, Outcome{}, wrapStore(err)
	}
	if len(matches) == 0 {
		return nil, Outcome{}, fmt.Errorf("%w: no record matches %s=%s", ErrNotFound, f.Field, f.Value)
	}

	updated := make([]T, 0, len(matches))
	for _, m := range matches {
		next := apply(m)
		if err := s.store.Update(ctx, next); err != nil {
			return nil, Outcome{}, wrapStore(err)
		}
		post, err := s.store.Get(ctx, m.RecordID())
		if err != nil {
			return nil, Outcome{}, wrapStore(err)
		}
		updated = append(updated, post)
	}

	out := s.append(ctx, audit.Record{
		UserID:      actor.UserID,
		Action:      audit.ActionUpdate,
		Description: desc,
		TableName:   s.table,
		RecordID:    matches[0].RecordID(),
		OldValues:   snapshot(matches[0]),
		NewValues:   snapshot(intended),
		IPAddress:   actor.IPAddress,
	})
	return updated, out, nil
}

// append runs the best-effort secondary step of the saga. The primary
// mutation has committed by now, so failures are logged and reported
// through Outcome instead of propagating.
func (s *Service[T]) append(ctx context.Context, rec audit.Record) Outcome {
	if err := s.rec.Append(ctx, rec); err != nil {
		s.log.WarnContext(ctx, "audit append failed",
			"table", s.table,
			"record_id", rec.RecordID,
			"action", string(rec.Action),
			"err", err,
		)
		return Outcome{AuditErr: err}
	}
	return Outcome{}
}

func snapshot(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
