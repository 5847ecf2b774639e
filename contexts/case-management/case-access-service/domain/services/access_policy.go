package services

import (
	"strings"

	"lexcase/contexts/case-management/case-access-service/domain/entities"
)

// VisibilityScope tells callers which slice of the case universe a role can
// ever see, so list queries can load the minimal data set before the pure
// visibility filter runs.
type VisibilityScope string

const (
	ScopeAll     VisibilityScope = "all"
	ScopeOwned   VisibilityScope = "owned"
	ScopeGranted VisibilityScope = "granted"
	ScopeNone    VisibilityScope = "none"
)

// RolePolicy is the closed per-role decision surface. All methods are pure
// functions over supplied data: they never touch storage and never fail.
type RolePolicy interface {
	// CanRead decides read access given the grants recorded for the caller
	// on this case. A zero-value case always yields false.
	CanRead(identity entities.Identity, c entities.Case, grants []entities.AccessGrant) bool

	// IsOwner decides write/decision authority. Read access alone is never
	// enough to mutate a case or decide access requests on it.
	IsOwner(identity entities.Identity, c entities.Case) bool

	// VisibleCaseIDs filters the supplied cases down to the ids the caller
	// may list. Output order is unspecified; callers sort by case creation
	// time descending.
	VisibleCaseIDs(identity entities.Identity, cases []entities.Case, grants []entities.AccessGrant) []string

	// Scope is the data-loading hint matching VisibleCaseIDs.
	Scope() VisibilityScope
}

// PolicyFor resolves the policy variant for a role. Unrecognized roles
// resolve to a deny-all policy rather than an error.
func PolicyFor(role entities.Role) RolePolicy {
	switch role {
	case entities.RoleAdmin:
		return adminPolicy{}
	case entities.RoleClient:
		return clientPolicy{}
	case entities.RoleLawyer:
		return lawyerPolicy{}
	default:
		return denyAllPolicy{}
	}
}

type adminPolicy struct{}

func (adminPolicy) CanRead(_ entities.Identity, c entities.Case, _ []entities.AccessGrant) bool {
	return strings.TrimSpace(c.CaseID) != ""
}

func (adminPolicy) IsOwner(_ entities.Identity, c entities.Case) bool {
	return strings.TrimSpace(c.CaseID) != ""
}

func (adminPolicy) VisibleCaseIDs(_ entities.Identity, cases []entities.Case, _ []entities.AccessGrant) []string {
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		if strings.TrimSpace(c.CaseID) == "" {
			continue
		}
		ids = append(ids, c.CaseID)
	}
	return ids
}

func (adminPolicy) Scope() VisibilityScope { return ScopeAll }

type clientPolicy struct{}

func (clientPolicy) CanRead(identity entities.Identity, c entities.Case, _ []entities.AccessGrant) bool {
	return clientOwns(identity, c)
}

func (clientPolicy) IsOwner(identity entities.Identity, c entities.Case) bool {
	return clientOwns(identity, c)
}

func (clientPolicy) VisibleCaseIDs(identity entities.Identity, cases []entities.Case, _ []entities.AccessGrant) []string {
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		if clientOwns(identity, c) {
			ids = append(ids, c.CaseID)
		}
	}
	return ids
}

func (clientPolicy) Scope() VisibilityScope { return ScopeOwned }

type lawyerPolicy struct{}

func (lawyerPolicy) CanRead(identity entities.Identity, c entities.Case, grants []entities.AccessGrant) bool {
	if strings.TrimSpace(c.CaseID) == "" || strings.TrimSpace(identity.ID) == "" {
		return false
	}
	for _, g := range grants {
		if g.CaseID == c.CaseID && g.LawyerID == identity.ID && g.Status == entities.GrantStatusApproved {
			return true
		}
	}
	return false
}

func (lawyerPolicy) IsOwner(_ entities.Identity, _ entities.Case) bool {
	return false
}

func (lawyerPolicy) VisibleCaseIDs(identity entities.Identity, cases []entities.Case, grants []entities.AccessGrant) []string {
	approved := make(map[string]struct{}, len(grants))
	for _, g := range grants {
		if g.LawyerID == identity.ID && g.Status == entities.GrantStatusApproved {
			approved[g.CaseID] = struct{}{}
		}
	}

	ids := make([]string, 0, len(approved))
	for _, c := range cases {
		if _, ok := approved[c.CaseID]; ok {
			ids = append(ids, c.CaseID)
		}
	}
	return ids
}

func (lawyerPolicy) Scope() VisibilityScope { return ScopeGranted }

type denyAllPolicy struct{}

func (denyAllPolicy) CanRead(_ entities.Identity, _ entities.Case, _ []entities.AccessGrant) bool {
	return false
}

func (denyAllPolicy) IsOwner(_ entities.Identity, _ entities.Case) bool {
	return false
}

func (denyAllPolicy) VisibleCaseIDs(_ entities.Identity, _ []entities.Case, _ []entities.AccessGrant) []string {
	return nil
}

func (denyAllPolicy) Scope() VisibilityScope { return ScopeNone }

func clientOwns(identity entities.Identity, c entities.Case) bool {
	if strings.TrimSpace(c.CaseID) == "" || strings.TrimSpace(identity.ID) == "" {
		return false
	}
	return identity.ID == c.OwnerID
}
