package roles

import (
	"context"
	"log/slog"
	"strings"

	"github.com/eresidence/eresidence/internal/authz"
)

// ProfileCounter reports how many profiles reference a role.
type ProfileCounter interface {
	CountByRole(ctx context.Context, roleID authz.RoleID) (int64, error)
}

// Service owns role lifecycle rules and keeps the active ruleset in
// step with the stored roles.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	profiles ProfileCounter
	holder   *authz.RulesetHolder
}

// NewService constructs a Service.
func NewService(logger *slog.Logger, repo RepositoryPort, profiles ProfileCounter, holder *authz.RulesetHolder) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, repo: repo, profiles: profiles, holder: holder}
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// Find fetches a single role.
func (s *Service) Find(ctx context.Context, id authz.RoleID) (*Role, error) {
	return s.repo.FindRole(ctx, id)
}

// Create stores a new role and refreshes the active ruleset.
func (s *Service) Create(ctx context.Context, role Role) (*Role, error) {
	if strings.TrimSpace(role.Name) == "" {
		return nil, ErrNameRequired
	}
	created, err := s.repo.CreateRole(ctx, role)
	if err != nil {
		return nil, err
	}
	s.refreshRuleset(ctx)
	return created, nil
}

// Update changes a role and refreshes the active ruleset. Requests
// already in flight keep evaluating against the set they started with.
func (s *Service) Update(ctx context.Context, role Role) (*Role, error) {
	if strings.TrimSpace(role.Name) == "" {
		return nil, ErrNameRequired
	}
	updated, err := s.repo.UpdateRole(ctx, role)
	if err != nil {
		return nil, err
	}
	s.refreshRuleset(ctx)
	return updated, nil
}

// Delete removes a role. A role still referenced by any profile is
// rejected before the system-reserved check, so an in-use system role
// reports the in-use condition.
func (s *Service) Delete(ctx context.Context, id authz.RoleID) error {
	role, err := s.repo.FindRole(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.profiles.CountByRole(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRoleInUse
	}
	if role.IsSystem {
		return ErrRoleSystemReserved
	}
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	s.refreshRuleset(ctx)
	return nil
}

// LoadRuleset primes the active ruleset from storage. Called once at
// startup before the first request is served.
func (s *Service) LoadRuleset(ctx context.Context) error {
	if s.holder == nil {
		return nil
	}
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		return err
	}
	s.holder.Swap(authz.NewRuleset(grantsFrom(roles)))
	return nil
}

// grantsFrom lays the stored role capabilities over the built-in
// defaults, so a fresh database still grants warga its read access.
func grantsFrom(roles []Role) map[authz.RoleID][]authz.Capability {
	grants := map[authz.RoleID][]authz.Capability{
		authz.RoleWarga: {authz.CapDashboardView, authz.CapResidentsView},
	}
	for _, role := range roles {
		if !role.IsActive {
			delete(grants, role.ID)
			continue
		}
		grants[role.ID] = role.Capabilities
	}
	return grants
}

// refreshRuleset rebuilds the capability grants from storage and swaps
// them in atomically. Failure keeps the previous set live.
func (s *Service) refreshRuleset(ctx context.Context) {
	if s.holder == nil {
		return
	}
	roles, err := s.repo.ListRoles(ctx)
	if err != nil {
		s.logger.Warn("ruleset refresh failed, keeping previous grants", "error", err)
		return
	}
	s.holder.Swap(authz.NewRuleset(grantsFrom(roles)))
}
