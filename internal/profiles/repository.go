package profiles

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/shared"
)

// Store provides PostgreSQL backed profile persistence. Its read side
// doubles as the authz profile store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// LookupRole reads the role reference for a subject and tags the outcome.
// Absence is not an error, only a fallback trigger for the resolver.
func (s *Store) LookupRole(ctx context.Context, subjectID string) authz.ProfileLookupResult {
	var roleID string
	err := s.pool.QueryRow(ctx, `SELECT role_id FROM profiles WHERE id = $1`, subjectID).Scan(&roleID)
	switch {
	case err == nil:
		return authz.FoundProfile(authz.RoleID(roleID))
	case errors.Is(err, pgx.ErrNoRows):
		return authz.ProfileMissing()
	default:
		return authz.ProfileError(err)
	}
}

// FindBySubjectID fetches the full profile record.
func (s *Store) FindBySubjectID(ctx context.Context, subjectID string) (*Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, full_name, role_id, is_active, COALESCE(metadata, '{}'::jsonb), created_at, updated_at
		 FROM profiles WHERE id = $1`, subjectID)
	return scanProfile(row)
}

// List returns all profiles ordered by name.
func (s *Store) List(ctx context.Context) ([]Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, full_name, role_id, is_active, COALESCE(metadata, '{}'::jsonb), created_at, updated_at
		 FROM profiles ORDER BY full_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *profile)
	}
	return out, rows.Err()
}

// Create provisions a profile for a subject.
func (s *Store) Create(ctx context.Context, p Profile) error {
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO profiles (id, full_name, role_id, is_active, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())`,
		p.ID, p.FullName, string(p.RoleID), p.IsActive, meta)
	return err
}

// Update applies a partial patch to a profile.
func (s *Store) Update(ctx context.Context, subjectID string, patch Patch) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET
		   full_name = COALESCE($2, full_name),
		   role_id   = COALESCE($3, role_id),
		   is_active = COALESCE($4, is_active),
		   updated_at = now()
		 WHERE id = $1`,
		subjectID, patch.FullName, roleIDText(patch.RoleID), patch.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a profile row.
func (s *Store) Delete(ctx context.Context, subjectID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, subjectID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByRole reports how many profiles reference a role. Used as the
// in-use precondition for role deletion.
func (s *Store) CountByRole(ctx context.Context, roleID authz.RoleID) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM profiles WHERE role_id = $1`, string(roleID)).Scan(&count)
	return count, err
}

func roleIDText(role *authz.RoleID) *string {
	if role == nil {
		return nil
	}
	text := string(*role)
	return &text
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	var roleID string
	var meta []byte
	if err := row.Scan(&p.ID, &p.FullName, &roleID, &p.IsActive, &meta, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	p.RoleID = authz.RoleID(roleID)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

var _ authz.ProfileStore = (*Store)(nil)
