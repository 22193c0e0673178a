package expense

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fieldops-platform/internal/audit"
	"fieldops-platform/internal/mutate"
)

// Service owns salesman expense reads and routes every mutation through the
// audited mutation service.
type Service struct {
	store mutate.Store[SalesmanExpense]
	mut   *mutate.Service[SalesmanExpense]
}

func NewService(store mutate.Store[SalesmanExpense], rec *audit.Recorder, log *slog.Logger) *Service {
	return &Service{
		store: store,
		mut:   mutate.NewService[SalesmanExpense](store, rec, "salesman_expense", log),
	}
}

// CreateInput carries the caller-supplied fields of a new expense. Salesman
// id and status are never caller-controlled.
type CreateInput struct {
	Kilometers  float64   `json:"kilometers,omitempty"`
	ExpenseDate time.Time `json:"expense_date"`
	Amount      float64   `json:"expense_amount"`
	Description string    `json:"expense_description,omitempty"`
	Type        Type      `json:"expense_type"`
	Images      []string  `json:"images,omitempty"`
}

// Patch is a partial expense update; nil means the field was not supplied
// and keeps its stored value.
type Patch struct {
	Kilometers  *float64   `json:"kilometers,omitempty"`
	Status      *Status    `json:"status,omitempty"`
	ExpenseDate *time.Time `json:"expense_date,omitempty"`
	Amount      *float64   `json:"expense_amount,omitempty"`
	Description *string    `json:"expense_description,omitempty"`
	Type        *Type      `json:"expense_type,omitempty"`
}

func (p Patch) apply(e SalesmanExpense) SalesmanExpense {
	if p.Kilometers != nil {
		e.Kilometers = *p.Kilometers
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.ExpenseDate != nil {
		e.ExpenseDate = *p.ExpenseDate
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	return e
}

func (p Patch) validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: status %q", mutate.ErrValidation, *p.Status)
	}
	if p.Type != nil && !p.Type.Valid() {
		return fmt.Errorf("%w: expense type %q", mutate.ErrValidation, *p.Type)
	}
	return nil
}

// ListBySalesman returns the salesman's expenses; none is a not-found.
func (s *Service) ListBySalesman(ctx context.Context, salesmanID string) ([]SalesmanExpense, error) {
	if salesmanID == "" {
		return nil, fmt.Errorf("%w: salesman id", mutate.ErrValidation)
	}
	out, err := s.store.FindBy(ctx, mutate.Filter{Field: "salesman_id", Value: salesmanID})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no expenses for salesman %s", mutate.ErrNotFound, salesmanID)
	}
	return out, nil
}

// Create files a new expense for the acting salesman; status starts pending.
func (s *Service) Create(ctx context.Context, in CreateInput, actor mutate.Actor) (SalesmanExpense, mutate.Outcome, error) {
	if !in.Type.Valid() {
		return SalesmanExpense{}, mutate.Outcome{}, fmt.Errorf("%w: expense type %q", mutate.ErrValidation, in.Type)
	}
	rec := SalesmanExpense{
		SalesmanID:  actor.UserID,
		Kilometers:  in.Kilometers,
		ExpenseDate: in.ExpenseDate,
		Amount:      in.Amount,
		Description: in.Description,
		Type:        in.Type,
		Images:      in.Images,
		Status:      StatusPending,
	}
	return s.mut.Create(ctx, rec, "Salesman expense created", actor)
}

func (s *Service) Update(ctx context.Context, id string, patch Patch, actor mutate.Actor) (SalesmanExpense, mutate.Outcome, error) {
	if err := patch.validate(); err != nil {
		return SalesmanExpense{}, mutate.Outcome{}, err
	}
	return s.mut.Update(ctx, id, patch.apply, patch, "Salesman expense updated", actor)
}

// ReplaceImages swaps the image list of every expense matching the salesman
// id for the freshly stored receipt paths. One audit record per call.
func (s *Service) ReplaceImages(ctx context.Context, salesmanID string, paths []string, actor mutate.Actor) ([]SalesmanExpense, mutate.Outcome, error) {
	if len(paths) == 0 {
		return nil, mutate.Outcome{}, fmt.Errorf("%w: image paths", mutate.ErrValidation)
	}
	intended := map[string][]string{"images": paths}
	return s.mut.ReplaceByFilter(ctx,
		mutate.Filter{Field: "salesman_id", Value: salesmanID},
		func(e SalesmanExpense) SalesmanExpense { e.Images = paths; return e },
		intended, "Salesman expense images uploaded", actor)
}

func (s *Service) Delete(ctx context.Context, id string, actor mutate.Actor) (SalesmanExpense, mutate.Outcome, error) {
	return s.mut.Delete(ctx, id, "Salesman expense deleted", actor)
}
