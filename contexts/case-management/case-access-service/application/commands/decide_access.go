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

type AccessDecision string

const (
	DecisionApprove AccessDecision = "approve"
	DecisionReject  AccessDecision = "reject"
)

// DecideAccessCommand records the owner's (or an admin's) decision on a
// pending access request.
type DecideAccessCommand struct {
	Identity entities.Identity
	CaseID   string
	LawyerID string
	Decision AccessDecision
}

type DecideAccessResult struct {
	Grant entities.AccessGrant `json:"grant"`
}

type DecideAccessUseCase struct {
	Cases       ports.CaseStore
	Grants      ports.GrantStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u DecideAccessUseCase) Execute(ctx context.Context, cmd DecideAccessCommand) (DecideAccessResult, error) {
	logger := application.ResolveLogger(u.Logger)
	logger.Info("access decision started",
		"event", "case_access_decide_started",
		"module", "case-management/case-access-service",
		"layer", "application",
		"case_id", cmd.CaseID,
		"lawyer_id", cmd.LawyerID,
		"decider_id", cmd.Identity.ID,
		"decision", string(cmd.Decision),
	)

	if err := requireAuthenticated(cmd.Identity); err != nil {
		return DecideAccessResult{}, err
	}

	var next entities.GrantStatus
	switch cmd.Decision {
	case DecisionApprove:
		next = entities.GrantStatusApproved
	case DecisionReject:
		next = entities.GrantStatusRejected
	default:
		return DecideAccessResult{}, domainerrors.ErrInvalidDecision
	}

	c, err := u.Cases.GetCase(ctx, cmd.CaseID)
	if err != nil {
		return DecideAccessResult{}, err
	}
	if err := requireOwner(ctx, u.Grants, cmd.Identity, c); err != nil {
		return DecideAccessResult{}, err
	}

	grant, found, err := u.Grants.GetActiveGrant(ctx, c.CaseID, cmd.LawyerID)
	if err != nil {
		return DecideAccessResult{}, err
	}
	if !found || grant.Status != entities.GrantStatusPending {
		return DecideAccessResult{}, domainerrors.ErrNoPendingRequest
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return DecideAccessResult{}, err
	}

	now := u.now()
	notification := ports.AccessNotification{
		EventID:     eventID,
		EventType:   EventTypeAccessDecided,
		CaseID:      c.CaseID,
		LawyerID:    cmd.LawyerID,
		RecipientID: cmd.LawyerID,
		GrantStatus: string(next),
		OccurredAt:  now,
	}

	// Compare-and-set guards against a racing withdrawal or a double-click
	// second decision: exactly one transition wins, the loser observes
	// ErrNoPendingRequest.
	updated, err := u.Grants.TransitionGrant(
		ctx,
		grant.GrantID,
		entities.GrantStatusPending,
		next,
		cmd.Identity.ID,
		now,
		notification,
	)
	if err != nil {
		logger.Error("access decision write failed",
			"event", "case_access_decide_write_failed",
			"module", "case-management/case-access-service",
			"layer", "application",
			"case_id", c.CaseID,
			"lawyer_id", cmd.LawyerID,
			"grant_id", grant.GrantID,
			"error", err.Error(),
		)
		return DecideAccessResult{}, err
	}

	logger.Info("access decision completed",
		"event", "case_access_decide_completed",
		"module", "case-management/case-access-service",
		"layer", "application",
		"case_id", c.CaseID,
		"lawyer_id", cmd.LawyerID,
		"grant_id", grant.GrantID,
		"status", string(updated.Status),
	)

	return DecideAccessResult{Grant: updated}, nil
}

func (u DecideAccessUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
