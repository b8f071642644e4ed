package services

import "github.com/riftarena/arena-system/models"

// Actor is the already-authenticated caller of a core operation. The
// core never validates credentials itself; it only trusts the (id, role)
// pair handed over by the identity boundary.
type Actor struct {
	ID   string
	Role models.UserRole
}

func (a Actor) CanModerate() bool {
	return a.Role.CanModerate()
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}
