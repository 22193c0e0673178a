package expense

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"fieldops-platform/internal/audit"
	"fieldops-platform/internal/mutate"
)

func newTestService(t *testing.T) (*Service, *mutate.MemoryStore[SalesmanExpense], *audit.MemoryRepo) {
	t.Helper()
	store := NewMemoryRepo()
	repo := audit.NewMemoryRepo()
	return NewService(store, audit.NewRecorder(repo), nil), store, repo
}

func TestCreate_DefaultsToPendingAndAudits(t *testing.T) {
	svc, _, repo := newTestService(t)

	created, out, err := svc.Create(context.Background(), CreateInput{
		Amount:      42.50,
		Type:        TypeFuel,
		ExpenseDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}, mutate.Actor{UserID: "u1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Degraded() {
		t.Fatalf("unexpected degraded outcome: %v", out.AuditErr)
	}

	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.Status != StatusPending {
		t.Fatalf("expected pending status, got %q", created.Status)
	}
	if created.SalesmanID != "u1" {
		t.Fatalf("expected salesman id from actor, got %q", created.SalesmanID)
	}

	recs := repo.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(recs))
	}
	r := recs[0]
	if r.Action != audit.ActionCreate || r.TableName != "salesman_expense" {
		t.Fatalf("unexpected audit record %+v", r)
	}
	if r.RecordID != created.ID {
		t.Fatalf("audit record_id %q != created id %q", r.RecordID, created.ID)
	}
	if r.OldValues != nil {
		t.Fatalf("old_values must be null on create")
	}
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	svc, _, repo := newTestService(t)

	_, _, err := svc.Create(context.Background(), CreateInput{Amount: 1, Type: "parking"}, mutate.Actor{UserID: "u1"})
	if !errors.Is(err, mutate.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(repo.Records()) != 0 {
		t.Fatalf("expected no audit records")
	}
}

func TestUpdate_AppliesOnlySuppliedFields(t *testing.T) {
	svc, store, _ := newTestService(t)
	seeded, err := store.Create(context.Background(), SalesmanExpense{
		SalesmanID: "s1", Amount: 10, Type: TypeTravel, Status: StatusPending, Description: "taxi",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	newStatus := StatusApproved
	post, _, err := svc.Update(context.Background(), seeded.ID, Patch{Status: &newStatus}, mutate.Actor{UserID: "mgr-1"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if post.Status != StatusApproved {
		t.Fatalf("expected status updated, got %q", post.Status)
	}
	if post.Amount != 10 || post.Description != "taxi" {
		t.Fatalf("unsupplied fields must keep stored values, got %+v", post)
	}
}

func TestUpdate_RejectsInvalidStatus(t *testing.T) {
	svc, _, _ := newTestService(t)
	bad := Status("archived")
	_, _, err := svc.Update(context.Background(), "e1", Patch{Status: &bad}, mutate.Actor{UserID: "u1"})
	if !errors.Is(err, mutate.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestListBySalesman_EmptyIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.ListBySalesman(context.Background(), "nobody")
	if !errors.Is(err, mutate.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceImages(t *testing.T) {
	svc, store, repo := newTestService(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, SalesmanExpense{SalesmanID: "s1", Amount: 5, Type: TypeFuel, Status: StatusPending, Images: []string{"/u/old.png"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	paths := []string{"/u/a.png", "/u/b.png"}
	updated, out, err := svc.ReplaceImages(ctx, "s1", paths, mutate.Actor{UserID: "s1"})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if out.Degraded() {
		t.Fatalf("unexpected degraded outcome: %v", out.AuditErr)
	}
	if len(updated) != 1 || len(updated[0].Images) != 2 {
		t.Fatalf("expected images replaced, got %+v", updated)
	}

	recs := repo.Records()
	if len(recs) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(recs))
	}
	var intended map[string][]string
	if err := json.Unmarshal(recs[0].NewValues, &intended); err != nil {
		t.Fatalf("unmarshal new_values: %v", err)
	}
	if len(intended["images"]) != 2 {
		t.Fatalf("new_values should carry the replacement list, got %v", intended)
	}
}

func TestReplaceImages_NoExpenseIsNotFound(t *testing.T) {
	svc, _, repo := newTestService(t)

	_, _, err := svc.ReplaceImages(context.Background(), "s1", []string{"/u/a.png", "/u/b.png"}, mutate.Actor{UserID: "u1"})
	if !errors.Is(err, mutate.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(repo.Records()) != 0 {
		t.Fatalf("expected zero audit records, got %d", len(repo.Records()))
	}
}

func TestDelete(t *testing.T) {
	svc, store, repo := newTestService(t)
	seeded, err := store.Create(context.Background(), SalesmanExpense{SalesmanID: "s1", Amount: 3, Type: TypeOther, Status: StatusPending})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	gone, _, err := svc.Delete(context.Background(), seeded.ID, mutate.Actor{UserID: "s1"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if gone.ID != seeded.ID {
		t.Fatalf("expected deleted snapshot")
	}
	if _, err := store.Get(context.Background(), seeded.ID); !errors.Is(err, mutate.ErrNotFound) {
		t.Fatalf("expected expense gone, got %v", err)
	}
	if len(repo.Records()) != 1 || repo.Records()[0].Action != audit.ActionDelete {
		t.Fatalf("expected one delete audit record")
	}
}
