package queries

import (
	"context"
	"log/slog"
	"sort"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	"lexcase/contexts/case-management/case-access-service/domain/services"
	"lexcase/contexts/case-management/case-access-service/ports"
)

type ListAccessibleCasesQuery struct {
	Identity entities.Identity
}

type ListAccessibleCasesResult struct {
	Cases []entities.Case
}

// ListAccessibleCasesUseCase returns the caller's case list: owned cases for
// clients, approved-grant cases for lawyers, everything for admins. The
// store fetch is scoped by the role policy and the pure visibility filter
// runs over the fetched slice, so the policy stays the single source of
// truth for what the caller may see.
type ListAccessibleCasesUseCase struct {
	Cases  ports.CaseStore
	Grants ports.GrantStore
	Logger *slog.Logger
}

func (u ListAccessibleCasesUseCase) Execute(ctx context.Context, query ListAccessibleCasesQuery) (ListAccessibleCasesResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if err := requireAuthenticated(query.Identity); err != nil {
		return ListAccessibleCasesResult{}, err
	}

	policy := services.PolicyFor(query.Identity.Role)

	var (
		candidates []entities.Case
		grants     []entities.AccessGrant
		err        error
	)
	switch policy.Scope() {
	case services.ScopeAll:
		candidates, err = u.loadAll(ctx)
	case services.ScopeOwned:
		candidates, err = u.loadOwned(ctx, query.Identity.ID)
	case services.ScopeGranted:
		candidates, grants, err = u.loadGranted(ctx, query.Identity.ID)
	default:
		// Unrecognized role: empty listing, never an error.
		return ListAccessibleCasesResult{Cases: []entities.Case{}}, nil
	}
	if err != nil {
		logger.Error("accessible case load failed",
			"event", "case_list_load_failed",
			"module", "case-management/case-access-service",
			"layer", "application",
			"actor_id", query.Identity.ID,
			"error", err.Error(),
		)
		return ListAccessibleCasesResult{}, err
	}

	visible := policy.VisibleCaseIDs(query.Identity, candidates, grants)
	visibleSet := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		visibleSet[id] = struct{}{}
	}

	items := make([]entities.Case, 0, len(visible))
	for _, c := range candidates {
		if _, ok := visibleSet[c.CaseID]; ok {
			items = append(items, c)
		}
	}
	sortCasesNewestFirst(items)

	return ListAccessibleCasesResult{Cases: items}, nil
}

func (u ListAccessibleCasesUseCase) loadAll(ctx context.Context) ([]entities.Case, error) {
	ids, err := u.Cases.ListAllCaseIDs(ctx)
	if err != nil {
		return nil, err
	}
	return u.Cases.ListCasesByIDs(ctx, ids)
}

func (u ListAccessibleCasesUseCase) loadOwned(ctx context.Context, ownerID string) ([]entities.Case, error) {
	ids, err := u.Cases.ListCaseIDsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return u.Cases.ListCasesByIDs(ctx, ids)
}

func (u ListAccessibleCasesUseCase) loadGranted(ctx context.Context, lawyerID string) ([]entities.Case, []entities.AccessGrant, error) {
	grants, err := u.Grants.ListGrants(ctx, ports.GrantFilter{
		LawyerID: lawyerID,
		Statuses: []entities.GrantStatus{entities.GrantStatusApproved},
	})
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.CaseID)
	}
	cases, err := u.Cases.ListCasesByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return cases, grants, nil
}

func sortCasesNewestFirst(items []entities.Case) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CaseID < items[j].CaseID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}
