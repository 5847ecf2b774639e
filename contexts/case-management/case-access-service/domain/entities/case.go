package entities

import (
	"strings"
	"time"

	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
)

type CaseStatus string

const (
	CaseStatusOpen     CaseStatus = "open"
	CaseStatusClosed   CaseStatus = "closed"
	CaseStatusArchived CaseStatus = "archived"
)

// Case is the persistence-backed record the access engine decides over.
// OwnerID always references a client identity; the engine reads only
// CaseID and OwnerID, the remaining fields are thin application state.
type Case struct {
	CaseID      string
	OwnerID     string
	Title       string
	Description string
	Category    string
	Status      CaseStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCase(
	caseID string,
	ownerID string,
	title string,
	description string,
	category string,
	createdAt time.Time,
) (Case, error) {
	if strings.TrimSpace(caseID) == "" ||
		strings.TrimSpace(ownerID) == "" ||
		strings.TrimSpace(title) == "" {
		return Case{}, domainerrors.ErrInvalidCaseInput
	}

	return Case{
		CaseID:      caseID,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Category:    category,
		Status:      CaseStatusOpen,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}, nil
}
