package mutate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"fieldops-platform/internal/audit"
)

type testRec struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r testRec) RecordID() string { return r.ID }

func newTestStore() *MemoryStore[testRec] {
	seq := 0
	return NewMemoryStore(MemoryHooks[testRec]{
		AssignID: func(r testRec) testRec {
			seq++
			r.ID = fmt.Sprintf("rec-%d", seq)
			return r
		},
		Match: func(r testRec, f Filter) bool {
			return f.Field == "owner" && r.Owner == f.Value
		},
		Clone: func(r testRec) testRec {
			if r.Tags != nil {
				r.Tags = append([]string(nil), r.Tags...)
			}
			return r
		},
		Touch: func(r testRec, now time.Time, created bool) testRec {
			r.UpdatedAt = now
			return r
		},
	})
}

func newTestService(t *testing.T) (*Service[testRec], *MemoryStore[testRec], *audit.MemoryRepo) {
	t.Helper()
	store := newTestStore()
	repo := audit.NewMemoryRepo()
	svc := NewService[testRec](store, audit.NewRecorder(repo), "test_records", nil)
	return svc, store, repo
}

func TestCreate_WritesOneAuditRecord(t *testing.T) {
	svc, _, repo := newTestService(t)

	created, out, err := svc.Create(context.Background(), testRec{Name: "first"}, "record created", Actor{UserID: "u1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Degraded() {
		t.Fatalf("unexpected degraded outcome: %v", out.AuditErr)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	recs := repo.Records()
	if len(recs) != 1 {
		t.Fatalf("expected exactly 1 audit record, got %d", len(recs))
	}
	r := recs[0]
	if r.Action != audit.ActionCreate {
		t.Fatalf("expected create action, got %q", r.Action)
	}
	if r.OldValues != nil {
		t.Fatalf("expected null old_values, got %s", r.OldValues)
	}
	if r.RecordID != created.ID {
		t.Fatalf("audit record_id %q != created id %q", r.RecordID, created.ID)
	}

	var snap testRec
	if err := json.Unmarshal(r.NewValues, &snap); err != nil {
		t.Fatalf("unmarshal new_values: %v", err)
	}
	if snap.ID != created.ID || snap.Name != created.Name {
		t.Fatalf("new_values %+v does not match returned snapshot %+v", snap, created)
	}
}

func TestCreate_RejectsMissingActor(t *testing.T) {
	svc, _, repo := newTestService(t)

	_, _, err := svc.Create(context.Background(), testRec{Name: "x"}, "record created", Actor{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(repo.Records()) != 0 {
		t.Fatalf("expected no audit records")
	}
}

func TestCreate_StoreFailureWritesNoAudit(t *testing.T) {
	svc, store, repo := newTestService(t)

	if _, err := store.Create(context.Background(), testRec{ID: "dup", Name: "seed"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, _, err := svc.Create(context.Background(), testRec{ID: "dup", Name: "again"}, "record created", Actor{UserID: "u1"})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(repo.Records()) != 0 {
		t.Fatalf("store failed, expected no audit records, got %d", len(repo.Records()))
	}
}

func TestUpdate_LogsIntendedPayloadAndReturnsFreshSnapshot(t *testing.T) {
	svc, store, repo := newTestService(t)

	seeded, err := store.Create(context.Background(), testRec{Name: "before", Owner: "u1"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	intended := map[string]any{"name": "after"}
	post, out, err := svc.Update(context.Background(), seeded.ID,
		func(r testRec) testRec { r.Name = "after"; return r },
		intended, "record updated", Actor{UserID: "u1", IPAddress: "10.0.0.9"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Degraded() {
		t.Fatalf("unexpected degraded outcome: %v", out.AuditErr)
	}
	if post.Name != "after" {
		t.Fatalf("expected post snapshot to carry the update, got %+v", post)
	}

	// read-after-write: the store agrees with the returned snapshot
	fetched, err := store.Get(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Name != "after" {
		t.Fatalf("expected re-fetch to see the update, got %+v", fetched)
	}

	recs := repo.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(recs))
	}
	r := recs[0]
	if r.Action != audit.ActionUpdate {
		t.Fatalf("expected update action, got %q", r.Action)
	}
	if r.IPAddress != "10.0.0.9" {
		t.Fatalf("expected ip captured, got %q", r.IPAddress)
	}

	var oldSnap testRec
	if err := json.Unmarshal(r.OldValues, &oldSnap); err != nil {
		t.Fatalf("unmarshal old_values: %v", err)
	}
	if oldSnap.Name != "before" {
		t.Fatalf("old_values should hold the pre-update snapshot, got %+v", oldSnap)
	}

	// new_values is the raw intended payload, not the resolved row
	var newSnap map[string]any
	if err := json.Unmarshal(r.NewValues, &newSnap); err != nil {
		t.Fatalf("unmarshal new_values: %v", err)
	}
	if newSnap["name"] != "after" {
		t.Fatalf("new_values should be the intended payload, got %v", newSnap)
	}
	if _, hasID := newSnap["id"]; hasID {
		t.Fatalf("new_values should not carry store fields the caller never supplied: %v", newSnap)
	}
}

func TestUpdate_NotFoundWritesNoAudit(t *testing.T) {
	svc, _, repo := newTestService(t)

	_, _, err := svc.Update(context.Background(), "missing",
		func(r testRec) testRec { return r }, nil, "record updated", Actor{UserID: "u1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.Records()) != 0 {
		t.Fatalf("expected no audit records")
	}
}

func TestDelete_LogsFinalSnapshotAndRecordBecomesUnreadable(t *testing.T) {
	svc, store, repo := newTestService(t)

	seeded, err := store.Create(context.Background(), testRec{Name: "doomed"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	gone, out, err := svc.Delete(context.Background(), seeded.ID, "record deleted", Actor{UserID: "u1"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if out.Degraded() {
		t.Fatalf("unexpected degraded outcome: %v", out.AuditErr)
	}
	if gone.ID != seeded.ID || gone.Name != "doomed" {
		t.Fatalf("expected the deleted snapshot back, got %+v", gone)
	}

	if _, err := store.Get(context.Background(), seeded.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	recs := repo.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(recs))
	}
	r := recs[0]
	if r.Action != audit.ActionDelete {
		t.Fatalf("expected delete action, got %q", r.Action)
	}
	if r.NewValues != nil {
		t.Fatalf("expected null new_values, got %s", r.NewValues)
	}
	var oldSnap testRec
	if err := json.Unmarshal(r.OldValues, &oldSnap); err != nil {
		t.Fatalf("unmarshal old_values: %v", err)
	}
	if oldSnap.Name != "doomed" {
		t.Fatalf("old_values should hold the pre-delete snapshot, got %+v", oldSnap)
	}
}

// spyStore records whether the service touched persistence at all.
type spyStore struct {
	touched bool
}

func (s *spyStore) Get(ctx context.Context, id string) (testRec, error) {
	s.touched = true
	return testRec{}, ErrNotFound
}
func (s *spyStore) FindBy(ctx context.Context, f Filter) ([]testRec, error) {
	s.touched = true
	return nil, nil
}
func (s *spyStore) Create(ctx context.Context, rec testRec) (testRec, error) {
	s.touched = true
	return rec, nil
}
func (s *spyStore) Update(ctx context.Context, rec testRec) error {
	s.touched = true
	return nil
}
func (s *spyStore) Delete(ctx context.Context, id string) error {
	s.touched = true
	return nil
}

func TestValidationFailsBeforeAnyStoreAccess(t *testing.T) {
	store := &spyStore{}
	repo := audit.NewMemoryRepo()
	svc := NewService[testRec](store, audit.NewRecorder(repo), "test_records", nil)
	ctx := context.Background()

	if _, _, err := svc.Update(ctx, "", func(r testRec) testRec { return r }, nil, "", Actor{UserID: "u1"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("update: expected ErrValidation, got %v", err)
	}
	if _, _, err := svc.Delete(ctx, "", "", Actor{UserID: "u1"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("delete: expected ErrValidation, got %v", err)
	}
	if _, _, err := svc.ReplaceByFilter(ctx, Filter{}, func(r testRec) testRec { return r }, nil, "", Actor{UserID: "u1"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("replace: expected ErrValidation, got %v", err)
	}

	if store.touched {
		t.Fatalf("validation errors must not touch the store")
	}
	if len(repo.Records()) != 0 {
		t.Fatalf("validation errors must not touch the audit recorder")
	}
}

type failingAuditRepo struct{}

func (failingAuditRepo) Append(ctx context.Context, r audit.Record) error {
	return errors.New("audit store down")
}

func TestAuditFailureIsDegradedSuccess(t *testing.T) {
	store := newTestStore()
	svc := NewService[testRec](store, audit.NewRecorder(failingAuditRepo{}), "test_records", nil)

	created, out, err := svc.Create(context.Background(), testRec{Name: "kept"}, "record created", Actor{UserID: "u1"})
	if err != nil {
		t.Fatalf("primary mutation must still succeed, got %v", err)
	}
	if !out.Degraded() {
		t.Fatalf("expected degraded outcome")
	}

	// the mutation committed despite the audit failure
	if _, err := store.Get(context.Background(), created.ID); err != nil {
		t.Fatalf("expected record to exist, got %v", err)
	}
}

func TestReplaceByFilter_UpdatesAllMatchesWithOneAuditRecord(t *testing.T) {
	svc, store, repo := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		if _, err := store.Create(ctx, testRec{Name: name, Owner: "s1"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if _, err := store.Create(ctx, testRec{Name: "other", Owner: "s2"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	paths := []string{"/u/a.png", "/u/b.png"}
	updated, out, err := svc.ReplaceByFilter(ctx, Filter{Field: "owner", Value: "s1"},
		func(r testRec) testRec { r.Tags = paths; return r },
		map[string]any{"tags": paths}, "images uploaded", Actor{UserID: "u1"})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if out.Degraded() {
		t.Fatalf("unexpected degraded outcome: %v", out.AuditErr)
	}
	if len(updated) != 2 {
		t.Fatalf("expected 2 updated records, got %d", len(updated))
	}
	for _, u := range updated {
		if len(u.Tags) != 2 {
			t.Fatalf("expected tags replaced, got %+v", u)
		}
	}
	if len(repo.Records()) != 1 {
		t.Fatalf("expected one audit record per call, got %d", len(repo.Records()))
	}
	if repo.Records()[0].RecordID != updated[0].ID {
		t.Fatalf("audit record should key to the first match")
	}
}

func TestReplaceByFilter_NoMatchIsNotFound(t *testing.T) {
	svc, _, repo := newTestService(t)

	_, _, err := svc.ReplaceByFilter(context.Background(), Filter{Field: "owner", Value: "s1"},
		func(r testRec) testRec { return r }, nil, "images uploaded", Actor{UserID: "u1"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.Records()) != 0 {
		t.Fatalf("expected zero audit records, got %d", len(repo.Records()))
	}
}
