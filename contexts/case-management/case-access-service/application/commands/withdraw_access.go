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

// WithdrawAccessCommand cancels the caller's own pending request.
type WithdrawAccessCommand struct {
	Identity entities.Identity
	CaseID   string
}

type WithdrawAccessResult struct {
	Grant entities.AccessGrant `json:"grant"`
}

type WithdrawAccessUseCase struct {
	Cases       ports.CaseStore
	Grants      ports.GrantStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u WithdrawAccessUseCase) Execute(ctx context.Context, cmd WithdrawAccessCommand) (WithdrawAccessResult, error) {
	logger := application.ResolveLogger(u.Logger)

	if err := requireAuthenticated(cmd.Identity); err != nil {
		return WithdrawAccessResult{}, err
	}
	if cmd.Identity.Role != entities.RoleLawyer {
		return WithdrawAccessResult{}, domainerrors.ErrForbidden
	}

	c, err := u.Cases.GetCase(ctx, cmd.CaseID)
	if err != nil {
		return WithdrawAccessResult{}, err
	}

	grant, found, err := u.Grants.GetActiveGrant(ctx, c.CaseID, cmd.Identity.ID)
	if err != nil {
		return WithdrawAccessResult{}, err
	}
	if !found || grant.Status != entities.GrantStatusPending {
		return WithdrawAccessResult{}, domainerrors.ErrNoPendingRequest
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return WithdrawAccessResult{}, err
	}

	now := u.now()
	notification := ports.AccessNotification{
		EventID:     eventID,
		EventType:   EventTypeAccessWithdrawn,
		CaseID:      c.CaseID,
		LawyerID:    cmd.Identity.ID,
		RecipientID: c.OwnerID,
		GrantStatus: string(entities.GrantStatusWithdrawn),
		OccurredAt:  now,
	}

	// Compare-and-set: if the owner decided the request between the read
	// above and this write, the transition fails cleanly.
	updated, err := u.Grants.TransitionGrant(
		ctx,
		grant.GrantID,
		entities.GrantStatusPending,
		entities.GrantStatusWithdrawn,
		cmd.Identity.ID,
		now,
		notification,
	)
	if err != nil {
		logger.Error("access withdrawal write failed",
			"event", "case_access_withdraw_write_failed",
			"module", "case-management/case-access-service",
			"layer", "application",
			"case_id", c.CaseID,
			"lawyer_id", cmd.Identity.ID,
			"grant_id", grant.GrantID,
			"error", err.Error(),
		)
		return WithdrawAccessResult{}, err
	}

	logger.Info("access request withdrawn",
		"event", "case_access_withdraw_completed",
		"module", "case-management/case-access-service",
		"layer", "application",
		"case_id", c.CaseID,
		"lawyer_id", cmd.Identity.ID,
		"grant_id", grant.GrantID,
	)

	return WithdrawAccessResult{Grant: updated}, nil
}

func (u WithdrawAccessUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
