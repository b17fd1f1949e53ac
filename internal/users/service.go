package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/eresidence/eresidence/internal/authz"
	"github.com/eresidence/eresidence/internal/shared"
)

// RoleChecker verifies a role id exists before an account references it.
type RoleChecker func(ctx context.Context, id authz.RoleID) error

// Notifier delivers a welcome message to a freshly provisioned account.
// Delivery is best effort and never blocks account creation.
type Notifier func(ctx context.Context, account *Account)

// Service owns account provisioning and maintenance.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	roleCheck RoleChecker
	welcome   Notifier
}

// SetWelcomeNotifier installs the post-creation notification hook.
func (s *Service) SetWelcomeNotifier(fn Notifier) {
	s.welcome = fn
}

// NewService constructs a Service. roleCheck may be nil, in which case
// role references are accepted unchecked.
func NewService(logger *slog.Logger, repo RepositoryPort, roleCheck RoleChecker) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger, repo: repo, roleCheck: roleCheck}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.ListAccounts(ctx)
}

// Find fetches one account.
func (s *Service) Find(ctx context.Context, id string) (*Account, error) {
	return s.repo.FindAccount(ctx, id)
}

// Create provisions a login together with its profile. The stored role
// reference is authoritative; the hint mirrored onto the login row only
// serves as the fallback signal when the profile is unreadable.
func (s *Service) Create(ctx context.Context, account NewAccount) (*Account, error) {
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))
	if account.RoleID == "" {
		account.RoleID = authz.RoleWarga
	}
	if err := s.checkRole(ctx, account.RoleID); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	if err := s.repo.CreateAccount(ctx, id, account, string(hash), hintFor(account.RoleID)); err != nil {
		return nil, err
	}
	s.logger.Info("account provisioned", "user_id", id, "role", account.RoleID)
	created, err := s.repo.FindAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.welcome != nil {
		s.welcome(ctx, created)
	}
	return created, nil
}

// Update applies a partial patch. A role change rewrites both the
// profile reference and the login hint so the fallback stays consistent.
func (s *Service) Update(ctx context.Context, id string, patch AccountPatch) (*Account, error) {
	var passwordHash *string
	if patch.Password != nil && *patch.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*patch.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		text := string(hash)
		passwordHash = &text
	}
	var roleHint *string
	if patch.RoleID != nil {
		if err := s.checkRole(ctx, *patch.RoleID); err != nil {
			return nil, err
		}
		hint := hintFor(*patch.RoleID)
		roleHint = &hint
	}
	if err := s.repo.UpdateAccount(ctx, id, patch, passwordHash, roleHint); err != nil {
		return nil, err
	}
	return s.repo.FindAccount(ctx, id)
}

// SetActive toggles an account. The acting subject may not deactivate
// their own account.
func (s *Service) SetActive(ctx context.Context, actorID, id string, active bool) (*Account, error) {
	if !active && actorID == id {
		return nil, ErrSelfDeactivate
	}
	return s.Update(ctx, id, AccountPatch{IsActive: &active})
}

// Delete removes an account, its sessions and its profile.
func (s *Service) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return ErrSelfDeactivate
	}
	return s.repo.DeleteAccount(ctx, id)
}

func (s *Service) checkRole(ctx context.Context, id authz.RoleID) error {
	if s.roleCheck == nil {
		return nil
	}
	if err := s.roleCheck(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrUnknownRole
		}
		return err
	}
	return nil
}

// hintFor mirrors the role onto the login row as the degraded-mode
// signal. Only the administrator hint carries elevated meaning.
func hintFor(role authz.RoleID) string {
	if role == authz.RoleAdministrator {
		return authz.AdminRoleHint
	}
	return string(role)
}
