package authz

import (
	"context"
	"log/slog"
)

// Resolver computes the effective role for a subject. It tolerates profile
// store unavailability and never returns an error: any internal failure
// degrades to RoleWarga. The claim-hint fallback deliberately trusts the
// identity provider's metadata when the authoritative store cannot answer;
// that weaker trust boundary is bounded to exactly two outcomes,
// administrator or default.
type Resolver struct {
	store  ProfileStore
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(store ProfileStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve determines the effective role for subject. Strict order, first
// success wins:
//
//  1. A profile row for the subject is authoritative, regardless of any
//     claim hint.
//  2. On store error or missing row, the claim hint decides between
//     administrator and default.
//  3. No subject at all resolves to the default role, never administrator.
//
// The lookup is a single point-in-time read with no retry; a failed attempt
// immediately takes the fallback path.
func (r *Resolver) Resolve(ctx context.Context, subject *Subject) RoleID {
	if subject == nil || subject.ID == "" {
		return RoleWarga
	}
	if r.store != nil {
		switch result := r.store.LookupRole(ctx, subject.ID); result.Kind {
		case ProfileFound:
			if result.Role != "" {
				return result.Role
			}
		case ProfileNotFound:
			// Fall through to the claim hint.
		case ProfileStoreError:
			r.logger.Warn("profile lookup failed, falling back to role hint",
				slog.String("subject", subject.ID),
				slog.Any("error", result.Err))
		}
	}
	if subject.RoleHint == AdminRoleHint {
		return RoleAdministrator
	}
	return RoleWarga
}
