// Package scope models data visibility as an explicit value passed into
// every read operation, instead of scattering role checks across queries.
package scope

import "github.com/google/uuid"

type Kind int

const (
	// KindAll sees every organization's records (ADMIN, AUDITOR).
	KindAll Kind = iota
	// KindOrganization sees only records belonging to one organization.
	KindOrganization
	// KindOwn sees only records the user created themselves.
	KindOwn
)

// Scope is an opaque visibility filter computed by the auth layer from the
// caller's role set.
type Scope struct {
	Kind           Kind
	OrganizationID uuid.UUID
	UserID         uuid.UUID
}

func All() Scope {
	return Scope{Kind: KindAll}
}

func Organization(orgID uuid.UUID) Scope {
	return Scope{Kind: KindOrganization, OrganizationID: orgID}
}

func Own(userID uuid.UUID) Scope {
	return Scope{Kind: KindOwn, UserID: userID}
}

// ForRoles derives the widest scope granted by a role set. ADMIN and AUDITOR
// see everything, ORGANIZATION is bounded to its own organization, everyone
// else sees only their own records.
func ForRoles(roles []string, orgID, userID uuid.UUID) Scope {
	for _, r := range roles {
		if r == "ADMIN" || r == "AUDITOR" {
			return All()
		}
	}
	for _, r := range roles {
		if r == "ORGANIZATION" && orgID != uuid.Nil {
			return Organization(orgID)
		}
	}
	return Own(userID)
}
