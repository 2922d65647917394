// Package authz is the single decision point for every permission check in
// the system. Handlers and services never test roles or ownership inline;
// they build a Caller and a Resource view and ask this package. All functions
// here are pure and safe for concurrent use.
package authz

import (
	"github.com/doublegate/WebScrape-TUI-sub001/internal/domain/model"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionShare  Action = "share"
)

// Caller is the authenticated identity a decision is made for.
type Caller struct {
	ID   string
	Role string
}

func (c Caller) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// Resource is the ownership/sharing view of a row, independent of its kind.
type Resource struct {
	OwnerID        *string // nil only for preinstalled rows
	IsShared       bool
	IsPreinstalled bool
}

// Decision is the outcome of an authorization check. The guard never fails
// on a well-formed request; a denial is a value, not an error.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Visible reports whether the caller may see the resource at all. A caller
// without visibility gets NotFound from the service layer, never Forbidden,
// so denial does not confirm the resource exists.
func Visible(caller Caller, res Resource) bool {
	if caller.IsAdmin() {
		return true
	}
	if res.OwnerID != nil && *res.OwnerID == caller.ID {
		return true
	}
	return res.IsShared || res.IsPreinstalled
}

// Authorize decides whether the caller may perform the action on the
// resource.
func Authorize(caller Caller, action Action, res Resource) Decision {
	switch action {
	case ActionRead:
		if Visible(caller, res) {
			return allow()
		}
		return deny("resource is not visible to caller")

	case ActionCreate:
		if caller.Role == model.RoleAdmin || caller.Role == model.RoleUser {
			return allow()
		}
		return deny("role is read-only")

	case ActionUpdate:
		if caller.Role == model.RoleViewer {
			return deny("role is read-only")
		}
		if caller.IsAdmin() {
			return allow()
		}
		if res.OwnerID != nil && *res.OwnerID == caller.ID {
			return allow()
		}
		return deny("caller does not own this resource")

	case ActionDelete:
		if res.IsPreinstalled {
			return deny("preinstalled resources cannot be deleted")
		}
		if caller.Role == model.RoleViewer {
			return deny("role is read-only")
		}
		if caller.IsAdmin() {
			return allow()
		}
		if res.OwnerID != nil && *res.OwnerID == caller.ID {
			return allow()
		}
		return deny("caller does not own this resource")

	case ActionShare:
		if res.IsPreinstalled {
			return deny("preinstalled resources are always shared")
		}
		if caller.Role == model.RoleViewer {
			return deny("role is read-only")
		}
		if caller.IsAdmin() {
			return allow()
		}
		if res.OwnerID != nil && *res.OwnerID == caller.ID {
			return allow()
		}
		return deny("caller does not own this resource")
	}

	return deny("unknown action")
}

// ShouldFork reports whether an update request must fork into a new owned
// copy instead of mutating the row in place. Only non-admin writers editing a
// preinstalled resource fork; admins edit preinstalled rows in place (the
// preinstalled flag itself stays immutable either way).
func ShouldFork(caller Caller, res Resource) bool {
	return res.IsPreinstalled && !caller.IsAdmin() && caller.Role != model.RoleViewer
}
