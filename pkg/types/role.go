package types

// Role is the set of purchasable and staff roles on the platform.
type Role string

const (
	RoleMember Role = "member"
	RoleVIP    Role = "vip"
	RoleGod    Role = "god"
	RoleMod    Role = "mod"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

var allRoles = []Role{RoleMember, RoleVIP, RoleGod, RoleMod, RoleAdmin, RoleOwner}

// ParseRole rejects unknown role strings at the boundary.
func ParseRole(s string) (Role, bool) {
	for _, r := range allRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// MaxStarLevel is the highest star level purchasable through upgrades.
const MaxStarLevel = 8
