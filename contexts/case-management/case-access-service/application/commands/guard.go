package commands

import (
	"context"
	"strings"

	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	"lexcase/contexts/case-management/case-access-service/domain/services"
	"lexcase/contexts/case-management/case-access-service/ports"
)

// requireAuthenticated rejects requests whose identity was not resolved by
// the upstream gateway. Role checks happen later; an unknown role still
// passes here and is denied by the policy engine (fail-closed).
func requireAuthenticated(identity entities.Identity) error {
	if strings.TrimSpace(identity.ID) == "" {
		return domainerrors.ErrUnauthenticated
	}
	return nil
}

// callerGrants loads the grants relevant to a read decision for the caller.
// Only lawyers derive read access from grants; other roles decide on
// ownership alone.
func callerGrants(
	ctx context.Context,
	grants ports.GrantStore,
	identity entities.Identity,
	caseID string,
) ([]entities.AccessGrant, error) {
	if identity.Role != entities.RoleLawyer {
		return nil, nil
	}
	return grants.ListGrants(ctx, ports.GrantFilter{
		CaseID:   caseID,
		LawyerID: identity.ID,
		Statuses: []entities.GrantStatus{entities.GrantStatusApproved},
	})
}

// requireOwner authorizes an ownership-level operation on a case. Callers
// that cannot even read the case receive the not-found mask so the response
// never reveals existence; callers with read access but without ownership
// receive a plain forbidden.
func requireOwner(
	ctx context.Context,
	grantStore ports.GrantStore,
	identity entities.Identity,
	c entities.Case,
) error {
	policy := services.PolicyFor(identity.Role)
	if policy.IsOwner(identity, c) {
		return nil
	}

	grants, err := callerGrants(ctx, grantStore, identity, c.CaseID)
	if err != nil {
		return err
	}
	if policy.CanRead(identity, c, grants) {
		return domainerrors.ErrForbidden
	}
	return domainerrors.ErrCaseNotFound
}
