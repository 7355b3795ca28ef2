package domain

// Actor is the guild member (or dashboard user) requesting an action.
type Actor struct {
	UserID  string
	RoleIDs []string
	// Elevated is set for guild administrators.
	Elevated bool
}

// HasRole reports whether the actor carries roleID.
func (a Actor) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, id := range a.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
