package users

import (
	"context"
	"fmt"
	"log/slog"

	"fieldops-platform/internal/audit"
	"fieldops-platform/internal/mutate"
)

// Repository is the persistence contract for users plus the read paths the
// listing endpoints need beyond the generic store.
type Repository interface {
	mutate.Store[User]

	ListByRoleIDs(ctx context.Context, roleIDs []string) ([]User, error)
	FindByPhone(ctx context.Context, phone string) (User, error)
}

// RoleRepository resolves roles and role assignments.
type RoleRepository interface {
	FindRole(ctx context.Context, roleID string) (Role, bool, error)
	ListOfficeRoles(ctx context.Context) ([]Role, error)
	RolesOf(ctx context.Context, userID string) ([]AssignedRole, error)
}

// Service exposes user reads and routes every user mutation through the
// audited mutation service.
type Service struct {
	repo  Repository
	roles RoleRepository
	mut   *mutate.Service[User]
}

func NewService(repo Repository, roles RoleRepository, rec *audit.Recorder, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		roles: roles,
		mut:   mutate.NewService[User](repo, rec, "users", log),
	}
}

// UpdatePatch is a partial profile update. Merge rule: a supplied value
// wins only when it is truthy; zero values (empty string, false) keep the
// existing field. Several call sites send partial payloads and rely on
// this, so IsActive=false cannot deactivate a user through this path.
type UpdatePatch struct {
	FullName     string `json:"name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	RoleID       string `json:"role_id,omitempty"`
	IsActive     bool   `json:"is_active,omitempty"`
	ProfileImage string `json:"image_url,omitempty"`
}

func (p UpdatePatch) merge(u User) User {
	if p.FullName != "" {
		u.FullName = p.FullName
	}
	if p.Phone != "" {
		u.Phone = p.Phone
	}
	if p.Email != "" {
		u.Email = p.Email
	}
	if p.RoleID != "" {
		u.RoleID = p.RoleID
	}
	if p.IsActive {
		u.IsActive = true
	}
	if p.ProfileImage != "" {
		u.ProfileImage = p.ProfileImage
	}
	return u
}

// ListOfficeUsers returns users holding any office role.
func (s *Service) ListOfficeUsers(ctx context.Context) ([]User, error) {
	roles, err := s.roles.ListOfficeRoles(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.RoleID)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.repo.ListByRoleIDs(ctx, ids)
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, fmt.Errorf("%w: user id", mutate.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) FindByPhone(ctx context.Context, phone string) (User, error) {
	if phone == "" {
		return User{}, fmt.Errorf("%w: phone", mutate.ErrValidation)
	}
	return s.repo.FindByPhone(ctx, phone)
}

// RolesOf lists the roles assigned to a user.
func (s *Service) RolesOf(ctx context.Context, userID string) ([]AssignedRole, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id", mutate.ErrValidation)
	}
	return s.roles.RolesOf(ctx, userID)
}

// Update applies a truthy-merge profile update. A referenced role must
// exist before anything is written.
func (s *Service) Update(ctx context.Context, id string, patch UpdatePatch, actor mutate.Actor) (User, mutate.Outcome, error) {
	if id == "" {
		return User{}, mutate.Outcome{}, fmt.Errorf("%w: user id", mutate.ErrValidation)
	}
	if patch.RoleID != "" {
		_, ok, err := s.roles.FindRole(ctx, patch.RoleID)
		if err != nil {
			return User{}, mutate.Outcome{}, err
		}
		if !ok {
			return User{}, mutate.Outcome{}, fmt.Errorf("%w: role %s", mutate.ErrNotFound, patch.RoleID)
		}
	}
	return s.mut.Update(ctx, id, patch.merge, patch, "User updated", actor)
}

// SetProfileImage replaces the stored profile image filename.
func (s *Service) SetProfileImage(ctx context.Context, id, filename string, actor mutate.Actor) (User, mutate.Outcome, error) {
	if filename == "" {
		return User{}, mutate.Outcome{}, fmt.Errorf("%w: image filename", mutate.ErrValidation)
	}
	intended := map[string]string{"profile_image": filename}
	return s.mut.Update(ctx, id,
		func(u User) User { u.ProfileImage = filename; return u },
		intended, "User profile image updated", actor)
}

// Delete removes the user. Terminal; role assignments cascade at the store.
func (s *Service) Delete(ctx context.Context, id string, actor mutate.Actor) (User, mutate.Outcome, error) {
	return s.mut.Delete(ctx, id, "User deleted", actor)
}
