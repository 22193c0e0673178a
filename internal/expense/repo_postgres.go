package expense

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fieldops-platform/internal/mutate"
)

// PostgresRepo implements mutate.Store[SalesmanExpense] over the
// salesman_expense table. Images are stored as JSONB.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const expenseColumns = `id, salesman_id, kilometers, expense_date, expense_amount,
COALESCE(expense_description, ''), expense_type, images, status, created_at, updated_at`

func scanExpense(row interface{ Scan(...any) error }) (SalesmanExpense, error) {
	var e SalesmanExpense
	var images []byte
	err := row.Scan(
		&e.ID,
		&e.SalesmanID,
		&e.Kilometers,
		&e.ExpenseDate,
		&e.Amount,
		&e.Description,
		&e.Type,
		&images,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return SalesmanExpense{}, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &e.Images); err != nil {
			return SalesmanExpense{}, fmt.Errorf("expense %s: decode images: %w", e.ID, err)
		}
	}
	return e, nil
}

func encodeImages(images []string) (any, error) {
	if images == nil {
		return nil, nil
	}
	b, err := json.Marshal(images)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (SalesmanExpense, error) {
	q := fmt.Sprintf(`SELECT %s FROM salesman_expense WHERE id = $1`, expenseColumns)
	e, err := scanExpense(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return SalesmanExpense{}, fmt.Errorf("%w: expense %s", mutate.ErrNotFound, id)
	}
	return e, err
}

func (r *PostgresRepo) FindBy(ctx context.Context, f mutate.Filter) ([]SalesmanExpense, error) {
	if f.Field != "salesman_id" {
		return nil, fmt.Errorf("expense: field %q is not queryable", f.Field)
	}
	q := fmt.Sprintf(`SELECT %s FROM salesman_expense WHERE salesman_id = $1 ORDER BY expense_date DESC, created_at DESC`, expenseColumns)

	rows, err := r.db.QueryContext(ctx, q, f.Value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalesmanExpense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, e SalesmanExpense) (SalesmanExpense, error) {
	images, err := encodeImages(e.Images)
	if err != nil {
		return SalesmanExpense{}, err
	}
	q := fmt.Sprintf(`
INSERT INTO salesman_expense (id, salesman_id, kilometers, expense_date, expense_amount,
  expense_description, expense_type, images, status, created_at, updated_at)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, $3, $4, $5, NULLIF($6,''), $7, $8, $9, now(), now())
RETURNING %s`, expenseColumns)
	return scanExpense(r.db.QueryRowContext(ctx, q,
		e.ID, e.SalesmanID, e.Kilometers, e.ExpenseDate, e.Amount,
		e.Description, string(e.Type), images, string(e.Status)))
}

func (r *PostgresRepo) Update(ctx context.Context, e SalesmanExpense) error {
	images, err := encodeImages(e.Images)
	if err != nil {
		return err
	}
	const q = `
UPDATE salesman_expense
SET kilometers = $2, expense_date = $3, expense_amount = $4,
    expense_description = NULLIF($5,''), expense_type = $6, images = $7,
    status = $8, updated_at = now()
WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q,
		e.ID, e.Kilometers, e.ExpenseDate, e.Amount,
		e.Description, string(e.Type), images, string(e.Status))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: expense %s", mutate.ErrNotFound, e.ID)
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM salesman_expense WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: expense %s", mutate.ErrNotFound, id)
	}
	return nil
}
