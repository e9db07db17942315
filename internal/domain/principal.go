package domain

// AuthMethod records how a Principal proved its identity.
type AuthMethod string

const (
	AuthMethodPassword AuthMethod = "password"
	AuthMethodGitHub   AuthMethod = "oauth:github"
)

// Principal is the authenticated identity attached to a request. The zero
// value is the anonymous principal.
type Principal struct {
	UserID      int64      `json:"id"`
	DisplayName string     `json:"display_name"`
	Method      AuthMethod `json:"auth_method"`
}

// Anonymous reports whether no user is attached.
func (p Principal) Anonymous() bool {
	return p.UserID == 0
}

// PrincipalFor builds the principal for a stored user.
func PrincipalFor(u *User, method AuthMethod) Principal {
	return Principal{
		UserID:      u.ID,
		DisplayName: u.Name(),
		Method:      method,
	}
}
