package auth

import "github.com/angelmondragon/partshop-backend/pkg/enums"

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	UserID uint
	Role   enums.UserRole
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// CanAccess reports whether the actor may act on a resource owned by ownerID.
// Admins may act on anything, including ownerless resources.
func (a Actor) CanAccess(ownerID *uint) bool {
	if a.IsAdmin() {
		return true
	}
	return ownerID != nil && a.UserID != 0 && *ownerID == a.UserID
}
