package domain

type Role string

const (
	RoleInstructor Role = "instructor"
	RoleStudent    Role = "student"
)

// Principal is an authenticated identity. Role is assigned on first
// sign-in and never rewritten by this client.
type Principal struct {
	ID    string
	Email string
	Role  Role
}

// Credential is a short-lived proof of identity attached to outbound
// requests. It is re-issued per request, never cached by the client.
type Credential struct {
	Token string
}
