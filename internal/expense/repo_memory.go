package expense

import (
	"time"

	"fieldops-platform/internal/mutate"

	"github.com/google/uuid"
)

// NewMemoryRepo builds the in-memory test double for the expense store.
func NewMemoryRepo() *mutate.MemoryStore[SalesmanExpense] {
	return mutate.NewMemoryStore(mutate.MemoryHooks[SalesmanExpense]{
		AssignID: func(e SalesmanExpense) SalesmanExpense {
			e.ID = uuid.NewString()
			return e
		},
		Match: func(e SalesmanExpense, f mutate.Filter) bool {
			return f.Field == "salesman_id" && e.SalesmanID == f.Value
		},
		Clone: func(e SalesmanExpense) SalesmanExpense {
			if e.Images != nil {
				e.Images = append([]string(nil), e.Images...)
			}
			return e
		},
		Touch: func(e SalesmanExpense, now time.Time, created bool) SalesmanExpense {
			if created {
				e.CreatedAt = now
			}
			e.UpdatedAt = now
			return e
		},
	})
}
