package access

import "strings"

// Role is a rank in the fixed privilege order. Comparisons are always by
// ordinal, never by name.
type Role int

const (
	RoleUnverified Role = iota // lowest privilege, also the fail-closed default
	RoleVerified
	RoleStreamer
	RoleMember
	RolePremium
	RoleElevated
	RoleAdmin
)

var roleNames = [...]string{
	RoleUnverified: "unverified",
	RoleVerified:   "verified",
	RoleStreamer:   "streamer",
	RoleMember:     "member",
	RolePremium:    "premium",
	RoleElevated:   "elevated",
	RoleAdmin:      "admin",
}

func (r Role) String() string {
	if r < RoleUnverified || int(r) >= len(roleNames) {
		return "unverified"
	}
	return roleNames[r]
}

// ParseRole maps a stored role name to its rank. Unknown names map to the
// lowest role with ok=false.
func ParseRole(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range roleNames {
		if s == name {
			return Role(i), true
		}
	}
	return RoleUnverified, false
}

// AtLeast reports whether r ranks at or above required in the fixed order.
func (r Role) AtLeast(required Role) bool {
	return r >= required
}

// CanAccessStreamerPanel is threshold-based: any role ranked at or above
// streamer qualifies.
func CanAccessStreamerPanel(r Role) bool {
	return r.AtLeast(RoleStreamer)
}

// CanAccessAdminPanel is exact-match only: elevated members do NOT qualify
// even though they rank above streamer.
func CanAccessAdminPanel(r Role) bool {
	return r == RoleAdmin
}
