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

const (
	EventTypeAccessRequested = "case.access.requested"
	EventTypeAccessWithdrawn = "case.access.withdrawn"
	EventTypeAccessDecided   = "case.access.decided"
)

// RequestAccessCommand contains transport-agnostic input for a lawyer's
// access request.
type RequestAccessCommand struct {
	Identity entities.Identity
	CaseID   string
}

type RequestAccessResult struct {
	Grant entities.AccessGrant `json:"grant"`
}

// RequestAccessUseCase creates the pending grant that starts the access
// request lifecycle and queues the owner notification in the same write.
type RequestAccessUseCase struct {
	Cases       ports.CaseStore
	Grants      ports.GrantStore
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u RequestAccessUseCase) Execute(ctx context.Context, cmd RequestAccessCommand) (RequestAccessResult, error) {
	logger := application.ResolveLogger(u.Logger)
	logger.Info("access request started",
		"event", "case_access_request_started",
		"module", "case-management/case-access-service",
		"layer", "application",
		"case_id", cmd.CaseID,
		"lawyer_id", cmd.Identity.ID,
	)

	if err := requireAuthenticated(cmd.Identity); err != nil {
		return RequestAccessResult{}, err
	}
	if cmd.Identity.Role != entities.RoleLawyer {
		return RequestAccessResult{}, domainerrors.ErrForbidden
	}

	// Case existence is checked before the grant lookup; a missing case is
	// reported with the same not-found shape unauthorized readers see.
	c, err := u.Cases.GetCase(ctx, cmd.CaseID)
	if err != nil {
		return RequestAccessResult{}, err
	}

	if existing, found, err := u.Grants.GetActiveGrant(ctx, c.CaseID, cmd.Identity.ID); err != nil {
		return RequestAccessResult{}, err
	} else if found {
		switch existing.Status {
		case entities.GrantStatusApproved:
			return RequestAccessResult{}, domainerrors.ErrAlreadyHasAccess
		default:
			return RequestAccessResult{}, domainerrors.ErrDuplicateRequest
		}
	}

	grantID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RequestAccessResult{}, err
	}
	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RequestAccessResult{}, err
	}

	now := u.now()
	grant, err := entities.NewAccessGrant(grantID, c.CaseID, cmd.Identity.ID, now)
	if err != nil {
		return RequestAccessResult{}, err
	}

	notification := ports.AccessNotification{
		EventID:     eventID,
		EventType:   EventTypeAccessRequested,
		CaseID:      c.CaseID,
		LawyerID:    cmd.Identity.ID,
		RecipientID: c.OwnerID,
		GrantStatus: string(grant.Status),
		OccurredAt:  now,
	}

	// CreateGrant re-checks the active-pair invariant atomically; two
	// concurrent requests passing the lookup above still produce one row.
	if err := u.Grants.CreateGrant(ctx, grant, notification); err != nil {
		logger.Error("access request write failed",
			"event", "case_access_request_write_failed",
			"module", "case-management/case-access-service",
			"layer", "application",
			"case_id", c.CaseID,
			"lawyer_id", cmd.Identity.ID,
			"error", err.Error(),
		)
		return RequestAccessResult{}, err
	}

	logger.Info("access request completed",
		"event", "case_access_request_completed",
		"module", "case-management/case-access-service",
		"layer", "application",
		"case_id", c.CaseID,
		"lawyer_id", cmd.Identity.ID,
		"grant_id", grant.GrantID,
	)

	return RequestAccessResult{Grant: grant}, nil
}

func (u RequestAccessUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
