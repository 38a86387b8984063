package domain

// Role identifies one of the fixed account roles in the system.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleDoctor   Role = "doctor"
	RoleStaff    Role = "staff"
	RoleCustomer Role = "customer"
)

// roleGrants maps each role to the full set of roles it subsumes.
// This table is the single source of truth for the authorisation model.
// It is a direct inclusion table, not a linear rank: doctor and staff are
// siblings — both subsume customer, neither subsumes the other.
var roleGrants = map[Role][]Role{
	RoleAdmin:    {RoleAdmin, RoleManager, RoleDoctor, RoleStaff, RoleCustomer},
	RoleManager:  {RoleManager, RoleDoctor, RoleStaff, RoleCustomer},
	RoleDoctor:   {RoleDoctor, RoleCustomer},
	RoleStaff:    {RoleStaff, RoleCustomer},
	RoleCustomer: {RoleCustomer},
}

// AllRoles returns every role known to the system.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleDoctor, RoleStaff, RoleCustomer}
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	_, ok := roleGrants[r]
	return ok
}

// Expand returns the set of roles r subsumes, always including r itself.
// Unknown roles expand to nil.
func (r Role) Expand() []Role {
	grants, ok := roleGrants[r]
	if !ok {
		return nil
	}
	out := make([]Role, len(grants))
	copy(out, grants)
	return out
}

// Subsumes reports whether r's expanded set contains required.
func (r Role) Subsumes(required Role) bool {
	for _, g := range roleGrants[r] {
		if g == required {
			return true
		}
	}
	return false
}

// SatisfiesAny reports whether r subsumes at least one of the required
// roles. An empty requirement means the operation is public.
func (r Role) SatisfiesAny(required ...Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, req := range required {
		if r.Subsumes(req) {
			return true
		}
	}
	return false
}
