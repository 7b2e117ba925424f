package models

// Role is the flat role string carried by the authentication collaborator.
type Role string

const (
	RoleCustomer Role = "user"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// Capability is a named permission checked per operation.
type Capability int

const (
	// CapManageOrders allows confirming and cancelling any order.
	CapManageOrders Capability = iota
	// CapViewRevenue allows the revenue rollup endpoints.
	CapViewRevenue
)

// Has reports whether the role grants the capability. Roles are listed
// explicitly per capability so admin satisfies every staff check by
// construction rather than by string comparison at call sites.
func (r Role) Has(c Capability) bool {
	switch c {
	case CapManageOrders:
		return r == RoleStaff || r == RoleAdmin
	case CapViewRevenue:
		return r == RoleAdmin
	default:
		return false
	}
}

// Actor is the authenticated caller of a lifecycle operation. The id and role
// come from the authentication collaborator and are trusted as given.
type Actor struct {
	ID   int64
	Role Role
}
