package queries

import (
	"context"
	"log/slog"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	"lexcase/contexts/case-management/case-access-service/ports"
)

type BrowseCasesQuery struct {
	Identity entities.Identity
	Category string
}

type BrowseCasesResult struct {
	Cases []entities.Case
}

// BrowseCasesUseCase is the explicitly separate discovery listing: lawyers
// see the full case universe so they can find cases to request access to.
// It is a different operation from ListAccessibleCases on purpose, so the
// broad exposure is never a silent behavior change of the normal listing.
type BrowseCasesUseCase struct {
	Cases  ports.CaseStore
	Logger *slog.Logger
}

func (u BrowseCasesUseCase) Execute(ctx context.Context, query BrowseCasesQuery) (BrowseCasesResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if err := requireAuthenticated(query.Identity); err != nil {
		return BrowseCasesResult{}, err
	}
	if query.Identity.Role != entities.RoleLawyer && query.Identity.Role != entities.RoleAdmin {
		return BrowseCasesResult{}, domainerrors.ErrForbidden
	}

	ids, err := u.Cases.ListAllCaseIDs(ctx)
	if err != nil {
		return BrowseCasesResult{}, err
	}
	cases, err := u.Cases.ListCasesByIDs(ctx, ids)
	if err != nil {
		logger.Error("case browse load failed",
			"event", "case_browse_load_failed",
			"module", "case-management/case-access-service",
			"layer", "application",
			"actor_id", query.Identity.ID,
			"error", err.Error(),
		)
		return BrowseCasesResult{}, err
	}

	items := make([]entities.Case, 0, len(cases))
	for _, c := range cases {
		if query.Category != "" && c.Category != query.Category {
			continue
		}
		items = append(items, c)
	}
	sortCasesNewestFirst(items)

	return BrowseCasesResult{Cases: items}, nil
}
