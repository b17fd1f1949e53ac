package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines data access for the settings singleton.
type RepositoryPort interface {
	Get(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s Settings) error
}

// Repository provides PostgreSQL backed persistence. The table holds a
// single row keyed by id = 1.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get reads the settings row, falling back to the defaults when the
// row has never been written.
func (r *Repository) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	err := r.pool.QueryRow(ctx,
		`SELECT dashboard_name, COALESCE(project_address, ''), COALESCE(logo_ref, ''), COALESCE(favicon_ref, ''),
		        primary_color, secondary_color, timezone, date_format, language,
		        registration_enabled, email_verification, maintenance_mode, maintenance_message, updated_at
		 FROM system_settings WHERE id = 1`).Scan(
		&s.DashboardName, &s.ProjectAddress, &s.LogoRef, &s.FaviconRef,
		&s.PrimaryColor, &s.SecondaryColor, &s.Timezone, &s.DateFormat, &s.Language,
		&s.RegistrationEnabled, &s.EmailVerificationNeeds, &s.MaintenanceMode, &s.MaintenanceMessage, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		defaults := Defaults()
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save upserts the singleton row.
func (r *Repository) Save(ctx context.Context, s Settings) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO system_settings
		   (id, dashboard_name, project_address, logo_ref, favicon_ref, primary_color, secondary_color,
		    timezone, date_format, language, registration_enabled, email_verification,
		    maintenance_mode, maintenance_message, updated_at)
		 VALUES (1, $1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		 ON CONFLICT (id) DO UPDATE SET
		   dashboard_name = EXCLUDED.dashboard_name,
		   project_address = EXCLUDED.project_address,
		   logo_ref = EXCLUDED.logo_ref,
		   favicon_ref = EXCLUDED.favicon_ref,
		   primary_color = EXCLUDED.primary_color,
		   secondary_color = EXCLUDED.secondary_color,
		   timezone = EXCLUDED.timezone,
		   date_format = EXCLUDED.date_format,
		   language = EXCLUDED.language,
		   registration_enabled = EXCLUDED.registration_enabled,
		   email_verification = EXCLUDED.email_verification,
		   maintenance_mode = EXCLUDED.maintenance_mode,
		   maintenance_message = EXCLUDED.maintenance_message,
		   updated_at = now()`,
		s.DashboardName, s.ProjectAddress, s.LogoRef, s.FaviconRef, s.PrimaryColor, s.SecondaryColor,
		s.Timezone, s.DateFormat, s.Language, s.RegistrationEnabled, s.EmailVerificationNeeds,
		s.MaintenanceMode, s.MaintenanceMessage)
	return err
}

var _ RepositoryPort = (*Repository)(nil)
