package queries

import (
	"context"
	"log/slog"
	"sort"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	"lexcase/contexts/case-management/case-access-service/domain/services"
	"lexcase/contexts/case-management/case-access-service/ports"
)

type ListCaseAccessRequestsQuery struct {
	Identity entities.Identity
	CaseID   string
}

type ListCaseAccessRequestsResult struct {
	Grants []entities.AccessGrant
}

// ListCaseAccessRequestsUseCase returns the grant history for one case,
// pending requests first, for the owner's decision screen. Ownership is
// required; non-readers get the not-found mask.
type ListCaseAccessRequestsUseCase struct {
	Cases  ports.CaseStore
	Grants ports.GrantStore
	Logger *slog.Logger
}

func (u ListCaseAccessRequestsUseCase) Execute(ctx context.Context, query ListCaseAccessRequestsQuery) (ListCaseAccessRequestsResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if err := requireAuthenticated(query.Identity); err != nil {
		return ListCaseAccessRequestsResult{}, err
	}

	c, err := u.Cases.GetCase(ctx, query.CaseID)
	if err != nil {
		return ListCaseAccessRequestsResult{}, err
	}

	policy := services.PolicyFor(query.Identity.Role)
	if !policy.IsOwner(query.Identity, c) {
		grants, err := readGrants(ctx, u.Grants, query.Identity, c.CaseID)
		if err != nil {
			return ListCaseAccessRequestsResult{}, err
		}
		if policy.CanRead(query.Identity, c, grants) {
			return ListCaseAccessRequestsResult{}, domainerrors.ErrForbidden
		}
		return ListCaseAccessRequestsResult{}, domainerrors.ErrCaseNotFound
	}

	grants, err := u.Grants.ListGrants(ctx, ports.GrantFilter{CaseID: c.CaseID})
	if err != nil {
		logger.Error("case access request list failed",
			"event", "case_access_request_list_failed",
			"module", "case-management/case-access-service",
			"layer", "application",
			"case_id", c.CaseID,
			"actor_id", query.Identity.ID,
			"error", err.Error(),
		)
		return ListCaseAccessRequestsResult{}, err
	}

	sortGrantsForReview(grants)
	return ListCaseAccessRequestsResult{Grants: grants}, nil
}

// sortGrantsForReview orders pending grants before decided ones, newest
// request first within each group.
func sortGrantsForReview(grants []entities.AccessGrant) {
	sort.Slice(grants, func(i, j int) bool {
		iPending := grants[i].Status == entities.GrantStatusPending
		jPending := grants[j].Status == entities.GrantStatusPending
		if iPending != jPending {
			return iPending
		}
		if grants[i].RequestedAt.Equal(grants[j].RequestedAt) {
			return grants[i].GrantID < grants[j].GrantID
		}
		return grants[i].RequestedAt.After(grants[j].RequestedAt)
	})
}
