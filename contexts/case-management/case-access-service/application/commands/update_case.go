package commands

import (
	"context"
	"log/slog"
	"time"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	"lexcase/contexts/case-management/case-access-service/ports"
)

// UpdateCaseCommand mutates case fields. Requires ownership: a lawyer with
// read access receives forbidden, anyone else the not-found mask.
type UpdateCaseCommand struct {
	Identity entities.Identity
	CaseID   string
	Update   ports.CaseUpdate
}

type UpdateCaseResult struct {
	Case entities.Case `json:"case"`
}

type UpdateCaseUseCase struct {
	Cases  ports.CaseStore
	Grants ports.GrantStore
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u UpdateCaseUseCase) Execute(ctx context.Context, cmd UpdateCaseCommand) (UpdateCaseResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if err := requireAuthenticated(cmd.Identity); err != nil {
		return UpdateCaseResult{}, err
	}
	if err := validateCaseUpdate(cmd.Update); err != nil {
		return UpdateCaseResult{}, err
	}

	c, err := u.Cases.GetCase(ctx, cmd.CaseID)
	if err != nil {
		return UpdateCaseResult{}, err
	}
	if err := requireOwner(ctx, u.Grants, cmd.Identity, c); err != nil {
		return UpdateCaseResult{}, err
	}

	updated, err := u.Cases.UpdateCase(ctx, c.CaseID, cmd.Update, u.now())
	if err != nil {
		logger.Error("case update write failed",
			"event", "case_update_write_failed",
			"module", "case-management/case-access-service",
			"layer", "application",
			"case_id", c.CaseID,
			"actor_id", cmd.Identity.ID,
			"error", err.Error(),
		)
		return UpdateCaseResult{}, err
	}

	logger.Info("case updated",
		"event", "case_update_completed",
		"module", "case-management/case-access-service",
		"layer", "application",
		"case_id", c.CaseID,
		"actor_id", cmd.Identity.ID,
	)

	return UpdateCaseResult{Case: updated}, nil
}

func validateCaseUpdate(update ports.CaseUpdate) error {
	if update.Title == nil && update.Description == nil && update.Category == nil && update.Status == nil {
		return domainerrors.ErrInvalidCaseInput
	}
	if update.Title != nil && *update.Title == "" {
		return domainerrors.ErrInvalidCaseInput
	}
	if update.Status != nil {
		switch *update.Status {
		case entities.CaseStatusOpen, entities.CaseStatusClosed, entities.CaseStatusArchived:
		default:
			return domainerrors.ErrInvalidCaseInput
		}
	}
	return nil
}

func (u UpdateCaseUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
