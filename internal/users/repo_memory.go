package users

import (
	"context"
	"fmt"
	"time"

	"fieldops-platform/internal/mutate"

	"github.com/google/uuid"
)

// MemoryRepo is the in-memory test double for Repository and
// RoleRepository. Not intended for production use.

type MemoryRepo struct {
	*mutate.MemoryStore[User]

	Roles       []Role
	Assignments []AssignedRoleRow
}

// AssignedRoleRow mirrors a user_roles row for the test double.
type AssignedRoleRow struct {
	UserID     string
	RoleID     string
	AssignedAt time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		MemoryStore: mutate.NewMemoryStore(mutate.MemoryHooks[User]{
			AssignID: func(u User) User {
				u.UserID = uuid.NewString()
				return u
			},
			Match: func(u User, f mutate.Filter) bool {
				switch f.Field {
				case "phone":
					return u.Phone == f.Value
				case "role_id":
					return u.RoleID == f.Value
				case "email":
					return u.Email == f.Value
				default:
					return false
				}
			},
			Touch: func(u User, now time.Time, created bool) User {
				if created {
					u.CreatedAt = now
				}
				u.UpdatedAt = now
				return u
			},
		}),
	}
}

func (m *MemoryRepo) ListByRoleIDs(ctx context.Context, roleIDs []string) ([]User, error) {
	var out []User
	for _, id := range roleIDs {
		batch, err := m.FindBy(ctx, mutate.Filter{Field: "role_id", Value: id})
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (m *MemoryRepo) FindByPhone(ctx context.Context, phone string) (User, error) {
	batch, err := m.FindBy(ctx, mutate.Filter{Field: "phone", Value: phone})
	if err != nil {
		return User{}, err
	}
	if len(batch) == 0 {
		return User{}, fmt.Errorf("%w: no user for phone", mutate.ErrNotFound)
	}
	return batch[0], nil
}

func (m *MemoryRepo) FindRole(ctx context.Context, roleID string) (Role, bool, error) {
	for _, r := range m.Roles {
		if r.RoleID == roleID {
			return r, true, nil
		}
	}
	return Role{}, false, nil
}

func (m *MemoryRepo) ListOfficeRoles(ctx context.Context) ([]Role, error) {
	var out []Role
	for _, r := range m.Roles {
		if r.IsOfficeRole {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryRepo) RolesOf(ctx context.Context, userID string) ([]AssignedRole, error) {
	var out []AssignedRole
	for _, a := range m.Assignments {
		if a.UserID != userID {
			continue
		}
		role, ok, err := m.FindRole(ctx, a.RoleID)
		if err != nil {
			return nil, err
		}
		ar := AssignedRole{RoleID: a.RoleID, AssignedAt: a.AssignedAt}
		if ok {
			ar.RoleName = role.RoleName
			ar.RoleDescription = role.Description
		}
		out = append(out, ar)
	}
	return out, nil
}
