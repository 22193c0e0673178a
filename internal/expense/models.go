package expense

import "time"

// SalesmanExpense is a field expense claim with optional receipt images.
// Amount is DECIMAL(10,2) at the store; float64 here matches the wire shape.
type SalesmanExpense struct {
	ID         string `json:"id" db:"id"`
	SalesmanID string `json:"salesman_id" db:"salesman_id"`

	Kilometers  float64   `json:"kilometers,omitempty" db:"kilometers"`
	ExpenseDate time.Time `json:"expense_date" db:"expense_date"`
	Amount      float64   `json:"expense_amount" db:"expense_amount"`
	Description string    `json:"expense_description,omitempty" db:"expense_description"`
	Type        Type      `json:"expense_type" db:"expense_type"`

	// Images is the list of stored receipt file paths; replaced wholesale
	// by upload, never appended to.
	Images []string `json:"images,omitempty" db:"images"`

	Status Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (e SalesmanExpense) RecordID() string { return e.ID }

type Type string

const (
	TypeFuel   Type = "fuel"
	TypeHotel  Type = "hotel"
	TypeTravel Type = "travel"
	TypeOther  Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeFuel, TypeHotel, TypeTravel, TypeOther:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}
