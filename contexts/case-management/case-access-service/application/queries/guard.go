package queries

import (
	"context"
	"strings"

	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	"lexcase/contexts/case-management/case-access-service/ports"
)

func requireAuthenticated(identity entities.Identity) error {
	if strings.TrimSpace(identity.ID) == "" {
		return domainerrors.ErrUnauthenticated
	}
	return nil
}

// readGrants loads the grants a read decision needs for the caller. Grants
// only ever widen lawyer access, so other roles skip the lookup.
func readGrants(
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
