package audit

import (
	"context"
	"database/sql"
)

// PostgresRepo persists audit records in the audit_logs table.
//
// The table is expected to be INSERT-only; no read path is exposed here.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, rec Record) error {
	const q = `
INSERT INTO audit_logs (
  id, user_id, action, description, table_name, record_id,
  old_values, new_values, ip_address, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`
	// nil RawMessage maps to SQL NULL, preserving the create/delete invariants.
	var oldVals, newVals any
	if rec.OldValues != nil {
		oldVals = []byte(rec.OldValues)
	}
	if rec.NewValues != nil {
		newVals = []byte(rec.NewValues)
	}

	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.UserID,
		string(rec.Action),
		rec.Description,
		rec.TableName,
		rec.RecordID,
		oldVals,
		newVals,
		rec.IPAddress,
		rec.CreatedAt,
	)
	return err
}
