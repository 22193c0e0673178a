package audit

import (
	"encoding/json"
	"time"
)

// Record is an immutable, append-only audit log entry.
//
// Invariants:
// - Records are never updated or deleted once written.
// - For action=create, OldValues is null and NewValues is the full created snapshot.
// - For action=delete, NewValues is null and OldValues is the full prior snapshot.
// - For action=update, both are present; NewValues holds the caller's intended
//   payload, not a resolved field-level diff.
// - RecordID links to the mutated row loosely (no foreign key enforced).
//
// Storage recommendation (Postgres):
// - Table audit_logs with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.

type Record struct {
	ID string `json:"id" db:"id"`

	// UserID is the actor the mutation is attributed to.
	UserID string `json:"user_id" db:"user_id"`

	Action      Action `json:"action" db:"action"`
	Description string `json:"description,omitempty" db:"description"`

	// TableName and RecordID identify the mutated row.
	TableName string `json:"table_name" db:"table_name"`
	RecordID  string `json:"record_id" db:"record_id"`

	// OldValues / NewValues are JSON snapshots; nil means SQL NULL.
	OldValues json.RawMessage `json:"old_values,omitempty" db:"old_values"`
	NewValues json.RawMessage `json:"new_values,omitempty" db:"new_values"`

	// IPAddress is the resolved client IP when the transport provides one.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"

	// ActionLogin covers authentication events recorded through the same
	// ledger. Login records carry no row snapshots.
	ActionLogin Action = "login"
)
