package domain

// InternalRole enumerates staff roles.
type InternalRole string

const (
	RoleEmployee InternalRole = "employee"
	RoleManager  InternalRole = "manager"
)

// Valid reports whether the role is known.
func (r InternalRole) Valid() bool {
	return r == RoleEmployee || r == RoleManager
}

// ClientRole enumerates roles of external client accounts.
type ClientRole string

const (
	ClientRoleUser    ClientRole = "client_user"
	ClientRoleManager ClientRole = "client_manager"
)

// Valid reports whether the client role is accepted by the portal.
func (r ClientRole) Valid() bool {
	return r == ClientRoleUser || r == ClientRoleManager
}

// User is an internal staff account (table users).
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Division     Division
	Role         InternalRole
}

// ClientUser is an external account bound to a client company (table client_users).
type ClientUser struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         ClientRole
	ClientID     int64
	CompanyName  string
}
