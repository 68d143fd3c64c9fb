package auth

import (
	"github.com/jwalitptl/birthcare-portal/internal/model"
)

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
)

// Requirement is what a page needs from the signed-in user. A zero Requirement only
// needs a session.
type Requirement struct {
	// Roles, when set, restricts the page to these roles. Admins always pass.
	Roles      []model.UserRole
	Permission model.PermissionTag
}

// Decision is either Allow or a redirect target.
type Decision struct {
	Allow      bool   `json:"allow"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

func allow() Decision {
	return Decision{Allow: true}
}

func redirect(to string) Decision {
	return Decision{RedirectTo: to}
}

// Can reports whether a user with role and perms holds capability. Admins hold every
// capability; an empty capability is held by everyone.
func Can(role model.UserRole, perms model.PermissionSet, capability model.PermissionTag) bool {
	if role == model.UserRoleAdmin || capability == "" {
		return true
	}
	return perms.Has(capability)
}

// Authorize decides access to a page. It depends only on its arguments.
func Authorize(session *model.Session, req Requirement) Decision {
	if session == nil {
		return redirect(LoginPath)
	}
	if len(req.Roles) > 0 && session.Role != model.UserRoleAdmin && !hasRole(req.Roles, session.Role) {
		return redirect(UnauthorizedPath)
	}
	if !Can(session.Role, session.Permissions, req.Permission) {
		return redirect(UnauthorizedPath)
	}
	return allow()
}

func hasRole(roles []model.UserRole, role model.UserRole) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
