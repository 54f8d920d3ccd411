package models

// Identity is the authenticated caller, resolved once per request from the
// session cookie and passed explicitly to services.
type Identity struct {
	SessionID string `json:"session_id"`
	Role      Role   `json:"role"`
	UserID    uint   `json:"user_id"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// UserRef returns the user id as a nullable column value.
func (i Identity) UserRef() *uint {
	if i.UserID == 0 {
		return nil
	}
	id := i.UserID
	return &id
}
