package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	"lexcase/contexts/case-management/case-access-service/ports"
)

// CreateCaseCommand opens a new case. Clients own the cases they create;
// admins may open a case on behalf of a client by naming the owner.
type CreateCaseCommand struct {
	Identity    entities.Identity
	OwnerID     string
	Title       string
	Description string
	Category    string
}

type CreateCaseResult struct {
	Case entities.Case `json:"case"`
}

type CreateCaseUseCase struct {
	Cases       ports.CaseStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u CreateCaseUseCase) Execute(ctx context.Context, cmd CreateCaseCommand) (CreateCaseResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if err := requireAuthenticated(cmd.Identity); err != nil {
		return CreateCaseResult{}, err
	}

	ownerID := ""
	switch cmd.Identity.Role {
	case entities.RoleClient:
		ownerID = cmd.Identity.ID
	case entities.RoleAdmin:
		ownerID = strings.TrimSpace(cmd.OwnerID)
		if ownerID == "" {
			return CreateCaseResult{}, domainerrors.ErrInvalidCaseInput
		}
	default:
		return CreateCaseResult{}, domainerrors.ErrForbidden
	}

	caseID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return CreateCaseResult{}, err
	}

	c, err := entities.NewCase(caseID, ownerID, cmd.Title, cmd.Description, cmd.Category, u.now())
	if err != nil {
		return CreateCaseResult{}, err
	}

	if err := u.Cases.CreateCase(ctx, c); err != nil {
		logger.Error("case create write failed",
			"event", "case_create_write_failed",
			"module", "case-management/case-access-service",
			"layer", "application",
			"case_id", c.CaseID,
			"owner_id", c.OwnerID,
			"error", err.Error(),
		)
		return CreateCaseResult{}, err
	}

	logger.Info("case created",
		"event", "case_create_completed",
		"module", "case-management/case-access-service",
		"layer", "application",
		"case_id", c.CaseID,
		"owner_id", c.OwnerID,
	)

	return CreateCaseResult{Case: c}, nil
}

func (u CreateCaseUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
