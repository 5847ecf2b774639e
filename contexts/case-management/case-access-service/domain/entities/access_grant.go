package entities

import (
	"strings"
	"time"

	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
)

type GrantStatus string

const (
	GrantStatusPending   GrantStatus = "pending"
	GrantStatusApproved  GrantStatus = "approved"
	GrantStatusRejected  GrantStatus = "rejected"
	GrantStatusWithdrawn GrantStatus = "withdrawn"
)

// AccessGrant is the authoritative record of a lawyer's relationship to a
// case. A lawyer may read a case iff an approved grant exists for the
// (case, lawyer) pair. At most one active grant exists per pair at a time;
// rejected and withdrawn grants are superseded by a fresh pending grant, not
// reopened.
type AccessGrant struct {
	GrantID     string
	CaseID      string
	LawyerID    string
	Status      GrantStatus
	RequestedAt time.Time
	DecidedAt   *time.Time
	DecidedBy   string
}

// NewAccessGrant creates the pending grant produced by a lawyer's request.
func NewAccessGrant(
	grantID string,
	caseID string,
	lawyerID string,
	requestedAt time.Time,
) (AccessGrant, error) {
	if strings.TrimSpace(grantID) == "" ||
		strings.TrimSpace(caseID) == "" ||
		strings.TrimSpace(lawyerID) == "" {
		return AccessGrant{}, domainerrors.ErrInvalidAccessRequest
	}

	return AccessGrant{
		GrantID:     grantID,
		CaseID:      caseID,
		LawyerID:    lawyerID,
		Status:      GrantStatusPending,
		RequestedAt: requestedAt.UTC(),
	}, nil
}

// Active reports whether the grant occupies the single active slot for its
// (case, lawyer) pair.
func (g AccessGrant) Active() bool {
	return g.Status == GrantStatusPending || g.Status == GrantStatusApproved
}

// Terminal reports whether the grant can no longer transition.
func (g AccessGrant) Terminal() bool {
	return g.Status == GrantStatusApproved ||
		g.Status == GrantStatusRejected ||
		g.Status == GrantStatusWithdrawn
}
