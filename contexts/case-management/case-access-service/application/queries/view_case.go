package queries

import (
	"context"
	"log/slog"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	"lexcase/contexts/case-management/case-access-service/domain/services"
	"lexcase/contexts/case-management/case-access-service/ports"
)

type ViewCaseQuery struct {
	Identity entities.Identity
	CaseID   string
}

type ViewCaseResult struct {
	Case entities.Case
}

// ViewCaseUseCase resolves a single case for the caller. Lack of read access
// is converted to the not-found mask here, in one place, so no transport
// path can leak whether the case exists.
type ViewCaseUseCase struct {
	Cases  ports.CaseStore
	Grants ports.GrantStore
	Logger *slog.Logger
}

func (u ViewCaseUseCase) Execute(ctx context.Context, query ViewCaseQuery) (ViewCaseResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if err := requireAuthenticated(query.Identity); err != nil {
		return ViewCaseResult{}, err
	}

	c, err := u.Cases.GetCase(ctx, query.CaseID)
	if err != nil {
		return ViewCaseResult{}, err
	}

	grants, err := readGrants(ctx, u.Grants, query.Identity, c.CaseID)
	if err != nil {
		return ViewCaseResult{}, err
	}

	if !services.PolicyFor(query.Identity.Role).CanRead(query.Identity, c, grants) {
		logger.Info("case read masked as not found",
			"event", "case_view_masked",
			"module", "case-management/case-access-service",
			"layer", "application",
			"case_id", query.CaseID,
			"actor_id", query.Identity.ID,
		)
		return ViewCaseResult{}, domainerrors.ErrCaseNotFound
	}

	return ViewCaseResult{Case: c}, nil
}
