package model

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
	RoleUser       Role = "USER"
)

// ResolveRole is the only place a role is derived from user attributes.
// Admin flags win over a technician profile.
func ResolveRole(isSuperuser, isStaff, hasTechnician bool) Role {
	switch {
	case isSuperuser || isStaff:
		return RoleAdmin
	case hasTechnician:
		return RoleTechnician
	default:
		return RoleUser
	}
}

// Principal is the authenticated caller.
type Principal struct {
	UserID    uint
	Username  string
	Role      Role
	Superuser bool
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p Principal) IsTechnician() bool {
	return p.Role == RoleTechnician
}

func (p Principal) IsUser() bool {
	return p.Role == RoleUser
}
