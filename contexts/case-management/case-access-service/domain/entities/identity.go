package entities

// Role is the closed set of caller roles recognized by the access engine.
// Any other value is treated as having no access.
type Role string

const (
	RoleClient Role = "client"
	RoleLawyer Role = "lawyer"
	RoleAdmin  Role = "admin"
)

// Identity is the verified caller supplied by the upstream identity gateway.
// The service trusts it completely and never re-verifies credentials.
type Identity struct {
	ID    string
	Email string
	Role  Role
}
