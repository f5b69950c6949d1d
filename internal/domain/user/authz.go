package user

import "github.com/Strob0t/PromptDesk/internal/domain"

// Permission names a privileged action.
type Permission string

const (
	PermManageTenants Permission = "manage tenants"
	PermManageUsers   Permission = "manage users"
	PermViewStats     Permission = "view stats"
	PermEditContent   Permission = "edit content"
	PermUseContent    Permission = "use content"
)

var rolePermissions = map[Role]map[Permission]bool{
	RoleAdmin: {
		PermManageTenants: true,
		PermManageUsers:   true,
		PermViewStats:     true,
		PermEditContent:   true,
		PermUseContent:    true,
	},
	RoleEditor: {
		PermEditContent: true,
		PermUseContent:  true,
	},
	RoleUser: {
		PermUseContent: true,
	},
	RoleViewer: {
		PermUseContent: true,
	},
}

// Can reports whether role grants perm.
func (r Role) Can(perm Permission) bool {
	return rolePermissions[r][perm]
}

// Authorize is the single role check consulted before every privileged
// mutation. It returns a *domain.ForbiddenError when the actor is nil or its
// role does not grant perm. Self-targeted actions are not special-cased.
func Authorize(actor *User, perm Permission) error {
	if actor == nil {
		return &domain.ForbiddenError{Action: string(perm)}
	}
	if !actor.Role.Can(perm) {
		return &domain.ForbiddenError{ActorID: actor.ID, Role: string(actor.Role), Action: string(perm)}
	}
	return nil
}
