package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	ListRoles(ctx context.Context) ([]Role, error)
	FindRole(ctx context.Context, id authz.RoleID) (*Role, error)
	CreateRole(ctx context.Context, role Role) (*Role, error)
	UpdateRole(ctx context.Context, role Role) (*Role, error)
	DeleteRole(ctx context.Context, id authz.RoleID) error
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, name, description, capabilities, is_system, is_active, created_at, updated_at`

// ListRoles returns all roles ordered by id.
func (r *Repository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	return roles, rows.Err()
}

// FindRole fetches a role by id.
func (r *Repository) FindRole(ctx context.Context, id authz.RoleID) (*Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, string(id))
	return scanRole(row)
}

// CreateRole inserts a new role.
func (r *Repository) CreateRole(ctx context.Context, role Role) (*Role, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO roles (id, name, description, capabilities, is_system, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		 RETURNING `+roleColumns,
		string(role.ID), role.Name, role.Description, capabilityTexts(role.Capabilities), role.IsSystem, role.IsActive)
	return scanRole(row)
}

// UpdateRole updates name, description, capabilities and active flag.
func (r *Repository) UpdateRole(ctx context.Context, role Role) (*Role, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE roles SET name = $2, description = $3, capabilities = $4, is_active = $5, updated_at = now()
		 WHERE id = $1
		 RETURNING `+roleColumns,
		string(role.ID), role.Name, role.Description, capabilityTexts(role.Capabilities), role.IsActive)
	return scanRole(row)
}

// DeleteRole removes a role by id.
func (r *Repository) DeleteRole(ctx context.Context, id authz.RoleID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func capabilityTexts(caps []authz.Capability) []string {
	out := make([]string, len(caps))
	for i, c := range caps {
		out[i] = string(c)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*Role, error) {
	var role Role
	var id string
	var caps []string
	if err := row.Scan(&id, &role.Name, &role.Description, &caps, &role.IsSystem, &role.IsActive, &role.CreatedAt, &role.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	role.ID = authz.RoleID(id)
	role.Capabilities = make([]authz.Capability, len(caps))
	for i, c := range caps {
		role.Capabilities[i] = authz.Capability(c)
	}
	return &role, nil
}

var _ RepositoryPort = (*Repository)(nil)
