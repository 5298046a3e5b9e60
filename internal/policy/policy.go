// Package policy decides whether a principal may read, list or mutate tickets.
// Every check returns a forbidden or unauthorized DomainError rather than
// filtering silently, so callers can tell "not allowed" from "not found".
package policy

import (
	"fmt"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ListScope is the effective restriction applied to a ticket listing.
// Nil fields mean "unrestricted".
type ListScope struct {
	Division *domain.Division
	ClientID *int64
}

func unknownPrincipal(p domain.Principal) error {
	if p == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return apperrors.NewForbidden(fmt.Sprintf("unsupported principal %T", p))
}

// ListingScope resolves the scope of a listing. Employees are pinned to their
// division and a requested filter is ignored; managers see every division
// unless they narrow it; clients see their own company only.
func ListingScope(p domain.Principal, requested *domain.Division) (ListScope, error) {
	switch v := p.(type) {
	case domain.InternalPrincipal:
		if v.IsManager() {
			if requested != nil {
				d := *requested
				return ListScope{Division: &d}, nil
			}
			return ListScope{}, nil
		}
		d := v.Division
		return ListScope{Division: &d}, nil
	case domain.ClientPrincipal:
		id := v.ClientID
		return ListScope{ClientID: &id}, nil
	default:
		return ListScope{}, unknownPrincipal(p)
	}
}

// CanRead allows employees within their division, managers everywhere and
// clients on tickets of their own company.
func CanRead(p domain.Principal, t *domain.Ticket) error {
	switch v := p.(type) {
	case domain.InternalPrincipal:
		if v.IsManager() || v.Division == t.Division {
			return nil
		}
		return apperrors.NewForbidden("ticket belongs to another division")
	case domain.ClientPrincipal:
		if t.ClientID != nil && *t.ClientID == v.ClientID {
			return nil
		}
		return apperrors.NewForbidden("ticket belongs to another client")
	default:
		return unknownPrincipal(p)
	}
}

// CanTransition allows status changes by internal staff of the ticket's
// division only; managers get no cross-division override here.
func CanTransition(p domain.Principal, t *domain.Ticket) error {
	switch v := p.(type) {
	case domain.InternalPrincipal:
		if v.Division == t.Division {
			return nil
		}
		return apperrors.NewForbidden("ticket belongs to another division")
	case domain.ClientPrincipal:
		return apperrors.NewForbidden("clients cannot change ticket status")
	default:
		return unknownPrincipal(p)
	}
}

// CanReassign allows any internal principal.
func CanReassign(p domain.Principal) error {
	_, err := RequireInternal(p)
	return err
}

// CanAnnotate allows internal principals who can read the ticket.
func CanAnnotate(p domain.Principal, t *domain.Ticket) error {
	if _, err := RequireInternal(p); err != nil {
		return err
	}
	return CanRead(p, t)
}

// CanProvisionUsers restricts internal account creation to managers.
func CanProvisionUsers(p domain.Principal) error {
	return RequireManager(p)
}

// CanExport restricts bulk exports to managers.
func CanExport(p domain.Principal) error {
	return RequireManager(p)
}

// CanAccessClient checks a client principal against a client id taken from
// the request path.
func CanAccessClient(p domain.Principal, clientID int64) error {
	switch v := p.(type) {
	case domain.ClientPrincipal:
		if v.ClientID == clientID {
			return nil
		}
		return apperrors.NewForbidden("client mismatch")
	case domain.InternalPrincipal:
		return apperrors.NewForbidden("client account required")
	default:
		return unknownPrincipal(p)
	}
}

// RequireInternal narrows p to an internal principal.
func RequireInternal(p domain.Principal) (domain.InternalPrincipal, error) {
	switch v := p.(type) {
	case domain.InternalPrincipal:
		return v, nil
	case domain.ClientPrincipal:
		return domain.InternalPrincipal{}, apperrors.NewForbidden("internal account required")
	default:
		return domain.InternalPrincipal{}, unknownPrincipal(p)
	}
}

// RequireClient narrows p to a client principal.
func RequireClient(p domain.Principal) (domain.ClientPrincipal, error) {
	switch v := p.(type) {
	case domain.ClientPrincipal:
		return v, nil
	case domain.InternalPrincipal:
		return domain.ClientPrincipal{}, apperrors.NewForbidden("client account required")
	default:
		return domain.ClientPrincipal{}, unknownPrincipal(p)
	}
}

// RequireManager narrows p to an internal manager.
func RequireManager(p domain.Principal) error {
	v, err := RequireInternal(p)
	if err != nil {
		return err
	}
	if !v.IsManager() {
		return apperrors.NewForbidden("manager role required")
	}
	return nil
}
