package types

type Role string

const (
	RoleCandidate Role = "candidate"
	RoleAdmin     Role = "admin"
)

// Session is the identity tuple handed to request handlers.
type Session struct {
	IsLoggedIn  bool   `json:"isLoggedIn"`
	Role        Role   `json:"role"`
	DisplayName string `json:"displayName"`
	UID         string `json:"uid"`
	Email       string `json:"email"`
}

func (s Session) IsAdmin() bool {
	return s.IsLoggedIn && s.Role == RoleAdmin
}
