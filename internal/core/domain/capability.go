package domain

// Roles
const (
	RoleVoter   = "VOTER"
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

// Capability is a single action a role may perform. All role checks in the
// system go through Can() so the role→capability mapping lives in one place.
type Capability string

const (
	CapVote        Capability = "vote"
	CapBeNominated Capability = "be_nominated"
	CapManage      Capability = "manage"
)

var roleCapabilities = map[string][]Capability{
	RoleVoter:   {CapVote},
	RoleStudent: {CapVote, CapBeNominated},
	RoleAdmin:   {CapVote, CapManage},
}

// Can reports whether a role grants the given capability.
func Can(role string, cap Capability) bool {
	for _, c := range roleCapabilities[role] {
		if c == cap {
			return true
		}
	}
	return false
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	_, ok := roleCapabilities[role]
	return ok
}
