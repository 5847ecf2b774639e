package queries

import (
	"context"
	"log/slog"
	"sort"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	"lexcase/contexts/case-management/case-access-service/ports"
)

type ListMyAccessRequestsQuery struct {
	Identity entities.Identity
	Statuses []entities.GrantStatus
}

type ListMyAccessRequestsResult struct {
	Grants []entities.AccessGrant
}

// ListMyAccessRequestsUseCase returns the caller's own access requests
// across all cases, newest first.
type ListMyAccessRequestsUseCase struct {
	Grants ports.GrantStore
	Logger *slog.Logger
}

func (u ListMyAccessRequestsUseCase) Execute(ctx context.Context, query ListMyAccessRequestsQuery) (ListMyAccessRequestsResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if err := requireAuthenticated(query.Identity); err != nil {
		return ListMyAccessRequestsResult{}, err
	}
	if query.Identity.Role != entities.RoleLawyer {
		return ListMyAccessRequestsResult{}, domainerrors.ErrForbidden
	}

	grants, err := u.Grants.ListGrants(ctx, ports.GrantFilter{
		LawyerID: query.Identity.ID,
		Statuses: query.Statuses,
	})
	if err != nil {
		logger.Error("own access request list failed",
			"event", "case_access_own_request_list_failed",
			"module", "case-management/case-access-service",
			"layer", "application",
			"actor_id", query.Identity.ID,
			"error", err.Error(),
		)
		return ListMyAccessRequestsResult{}, err
	}

	sort.Slice(grants, func(i, j int) bool {
		if grants[i].RequestedAt.Equal(grants[j].RequestedAt) {
			return grants[i].GrantID < grants[j].GrantID
		}
		return grants[i].RequestedAt.After(grants[j].RequestedAt)
	})

	return ListMyAccessRequestsResult{Grants: grants}, nil
}
