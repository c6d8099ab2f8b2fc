package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mir-ashiq/Travelers-sub001/internal"
)

// CheckMode selects how a capability requirement combines.
type CheckMode int

const (
	// RequireAll allows only when the role holds every listed capability.
	RequireAll CheckMode = iota
	// RequireAny allows when the role holds at least one.
	RequireAny
)

// DenialRecorder receives authorization denials for the audit trail.
type DenialRecorder interface {
	RecordDenial(ctx context.Context, principal *Principal, required []Capability)
}

// Guard is the single authorization check in front of every mutating
// handler. It consults the permission table only; token verification is the
// auth service's job and happens earlier in the middleware chain.
type Guard struct {
	table   *PermissionTable
	denials DenialRecorder
	logger  *slog.Logger
}

func NewGuard(table *PermissionTable, denials DenialRecorder, logger *slog.Logger) *Guard {
	return &Guard{
		table:   table,
		denials: denials,
		logger:  logger,
	}
}

// Authorize checks principal's role against the required capabilities.
// Returns nil on allow, a forbidden AppError on deny. The error never names
// the missing capability.
func (g *Guard) Authorize(ctx context.Context, principal *Principal, mode CheckMode, required ...Capability) *internal.AppError {
	if principal == nil {
		return internal.ErrMissingToken
	}

	satisfied := g.check(principal.Role, mode, required)
	if satisfied {
		return nil
	}

	g.logger.WarnContext(ctx, "authorization denied",
		"user_id", principal.ID,
		"role", principal.Role,
		"required_capabilities", required)
	if g.denials != nil {
		g.denials.RecordDenial(ctx, principal, required)
	}
	return internal.ErrForbidden
}

// AuthorizeAnyOfSets allows when the role satisfies every capability within
// at least one of the supplied sets. Used by endpoints reachable through
// more than one distinct privilege combination.
func (g *Guard) AuthorizeAnyOfSets(ctx context.Context, principal *Principal, sets ...[]Capability) *internal.AppError {
	if principal == nil {
		return internal.ErrMissingToken
	}

	var flat []Capability
	for _, set := range sets {
		flat = append(flat, set...)
		if g.check(principal.Role, RequireAll, set) {
			return nil
		}
	}

	g.logger.WarnContext(ctx, "authorization denied",
		"user_id", principal.ID,
		"role", principal.Role,
		"required_capability_sets", sets)
	if g.denials != nil {
		g.denials.RecordDenial(ctx, principal, flat)
	}
	return internal.ErrForbidden
}

func (g *Guard) check(role Role, mode CheckMode, required []Capability) bool {
	if len(required) == 0 {
		return true
	}

	held := 0
	for _, cap := range required {
		granted, modeled := g.table.Allows(role, cap)
		if !modeled {
			// Absent cells are authoring errors, surfaced loudly but still
			// treated as deny.
			g.logger.Error("capability not modeled for role",
				"role", role,
				"capability", cap)
			continue
		}
		if granted {
			held++
		}
	}

	switch mode {
	case RequireAny:
		return held > 0
	default:
		return held == len(required)
	}
}

// ----------------- chi middleware -----------------

func (g *Guard) middleware(authorize func(r *http.Request, p *Principal) *internal.AppError) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok || principal == nil {
				g.logger.Warn("authorization check failed: principal not in context")
				writeGuardError(w, internal.ErrMissingToken)
				return
			}

			if appErr := authorize(r, principal); appErr != nil {
				writeGuardError(w, appErr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Require allows the request when the role holds every listed capability.
func (g *Guard) Require(caps ...Capability) func(http.Handler) http.Handler {
	return g.middleware(func(r *http.Request, p *Principal) *internal.AppError {
		return g.Authorize(r.Context(), p, RequireAll, caps...)
	})
}

// RequireAnyOf allows when the role holds at least one listed capability.
func (g *Guard) RequireAnyOf(caps ...Capability) func(http.Handler) http.Handler {
	return g.middleware(func(r *http.Request, p *Principal) *internal.AppError {
		return g.Authorize(r.Context(), p, RequireAny, caps...)
	})
}

// RequireAnyOfSets allows when at least one capability set is fully held.
func (g *Guard) RequireAnyOfSets(sets ...[]Capability) func(http.Handler) http.Handler {
	return g.middleware(func(r *http.Request, p *Principal) *internal.AppError {
		return g.AuthorizeAnyOfSets(r.Context(), p, sets...)
	})
}

// RequireRole gates a route on role identity rather than a capability,
// used only for the admin-only audit read surface.
func (g *Guard) RequireRole(role Role) func(http.Handler) http.Handler {
	return g.middleware(func(r *http.Request, p *Principal) *internal.AppError {
		if p.Role != role {
			g.logger.WarnContext(r.Context(), "authorization denied: role mismatch",
				"user_id", p.ID,
				"role", p.Role)
			return internal.ErrForbidden
		}
		return nil
	})
}

func writeGuardError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
