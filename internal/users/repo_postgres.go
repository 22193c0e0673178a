package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fieldops-platform/internal/mutate"
)

// PostgresRepo implements Repository and RoleRepository over the users,
// roles and user_roles tables. Timestamps are store-maintained: Create and
// Update stamp them server-side.

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const userColumns = `user_id, full_name, phone, email, role_id, is_active, COALESCE(profile_image, ''), created_at, updated_at`

// filterColumns whitelists the fields FindBy may query.
var filterColumns = map[string]string{
	"phone":   "phone",
	"role_id": "role_id",
	"email":   "email",
}

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.UserID,
		&u.FullName,
		&u.Phone,
		&u.Email,
		&u.RoleID,
		&u.IsActive,
		&u.ProfileImage,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE user_id = $1`, userColumns)
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %s", mutate.ErrNotFound, id)
	}
	return u, err
}

func (r *PostgresRepo) FindBy(ctx context.Context, f mutate.Filter) ([]User, error) {
	col, ok := filterColumns[f.Field]
	if !ok {
		return nil, fmt.Errorf("users: field %q is not queryable", f.Field)
	}
	q := fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1 ORDER BY created_at`, userColumns, col)

	rows, err := r.db.QueryContext(ctx, q, f.Value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, u User) (User, error) {
	q := fmt.Sprintf(`
INSERT INTO users (user_id, full_name, phone, email, role_id, is_active, profile_image, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NULLIF($7,''), now(), now())
RETURNING %s`, userColumns)
	return scanUser(r.db.QueryRowContext(ctx, q,
		u.UserID, u.FullName, u.Phone, u.Email, u.RoleID, u.IsActive, u.ProfileImage))
}

func (r *PostgresRepo) Update(ctx context.Context, u User) error {
	const q = `
UPDATE users
SET full_name = $2, phone = $3, email = $4, role_id = $5, is_active = $6,
    profile_image = NULLIF($7,''), updated_at = now()
WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, q,
		u.UserID, u.FullName, u.Phone, u.Email, u.RoleID, u.IsActive, u.ProfileImage)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: user %s", mutate.ErrNotFound, u.UserID)
	}
	return nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: user %s", mutate.ErrNotFound, id)
	}
	return nil
}

func (r *PostgresRepo) ListByRoleIDs(ctx context.Context, roleIDs []string) ([]User, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(`SELECT %s FROM users WHERE role_id = ANY($1) ORDER BY full_name`, userColumns)

	rows, err := r.db.QueryContext(ctx, q, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) FindByPhone(ctx context.Context, phone string) (User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE phone = $1 LIMIT 1`, userColumns)
	u, err := scanUser(r.db.QueryRowContext(ctx, q, phone))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: no user for phone", mutate.ErrNotFound)
	}
	return u, err
}

func (r *PostgresRepo) FindRole(ctx context.Context, roleID string) (Role, bool, error) {
	const q = `SELECT role_id, role_name, COALESCE(description, ''), is_office_role FROM roles WHERE role_id = $1`
	var role Role
	err := r.db.QueryRowContext(ctx, q, roleID).Scan(&role.RoleID, &role.RoleName, &role.Description, &role.IsOfficeRole)
	if errors.Is(err, sql.ErrNoRows) {
		return Role{}, false, nil
	}
	if err != nil {
		return Role{}, false, err
	}
	return role, true, nil
}

func (r *PostgresRepo) ListOfficeRoles(ctx context.Context) ([]Role, error) {
	const q = `SELECT role_id, role_name, COALESCE(description, ''), is_office_role FROM roles WHERE is_office_role ORDER BY role_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.RoleID, &role.RoleName, &role.Description, &role.IsOfficeRole); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) RolesOf(ctx context.Context, userID string) ([]AssignedRole, error) {
	const q = `
SELECT ur.role_id, r.role_name, COALESCE(r.description, ''), ur.assigned_at
FROM user_roles ur
JOIN roles r ON r.role_id = ur.role_id
WHERE ur.user_id = $1
ORDER BY ur.assigned_at`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignedRole
	for rows.Next() {
		var a AssignedRole
		if err := rows.Scan(&a.RoleID, &a.RoleName, &a.RoleDescription, &a.AssignedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
