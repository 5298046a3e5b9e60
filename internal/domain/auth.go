package domain

// Principal is the authenticated actor of a request. It is a closed sum:
// the only implementations are InternalPrincipal and ClientPrincipal.
type Principal interface {
	// Identity is the name written into notes and created_by.
	Identity() string
	principal()
}

// InternalPrincipal is a staff member authenticated with an internal token.
type InternalPrincipal struct {
	Username string
	Division Division
	Role     InternalRole
}

func (p InternalPrincipal) Identity() string { return p.Username }
func (InternalPrincipal) principal()         {}

// IsManager reports whether the principal holds the manager role.
func (p InternalPrincipal) IsManager() bool { return p.Role == RoleManager }

// ClientPrincipal is an external client user authenticated with a client token.
type ClientPrincipal struct {
	ID          int64
	Email       string
	Role        ClientRole
	ClientID    int64
	CompanyName string
}

func (p ClientPrincipal) Identity() string { return p.Email }
func (ClientPrincipal) principal()         {}
