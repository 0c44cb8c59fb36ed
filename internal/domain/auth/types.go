package auth

// Package auth contains domain-level types for credential records and sessions.
// It is pure and free of framework/adapter concerns.

// Role represents an application's authorization role.
// Keep string form for easy persistence and JSON.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole normalizes a raw role cell into a Role.
// Only the exact value "admin" grants admin; everything else, including
// "Admin" or " admin", is a regular user.
func ParseRole(raw string) Role {
	if raw == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// Label returns the human label used on the dashboard header.
func (r Role) Label() string {
	if r == RoleAdmin {
		return "Admin"
	}
	return "User"
}

// UserRecord is one row of the remote credential table.
type UserRecord struct {
	UserID      string `json:"user_id"`
	Password    string `json:"password"`
	Role        Role   `json:"role"`
	AccessGrant string `json:"access_grant"`
}

// IsAdmin reports whether the record carries the admin role.
func (u UserRecord) IsAdmin() bool { return u.Role == RoleAdmin }

// Valid reports whether the record is usable as a session identity.
func (u UserRecord) Valid() bool {
	return u.UserID != "" && (u.Role == RoleAdmin || u.Role == RoleUser)
}

// Matches reports an exact, case-sensitive match on both user id and password.
func (u UserRecord) Matches(userID, password string) bool {
	return u.UserID == userID && u.Password == password
}

// Session is the authenticated identity held for one tab.
// A nil User means nobody is logged in.
type Session struct {
	User *UserRecord
}

// Authenticated reports whether the session holds a user.
func (s Session) Authenticated() bool { return s.User != nil }
