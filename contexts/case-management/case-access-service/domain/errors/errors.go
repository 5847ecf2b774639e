package errors

import "errors"

var (
	ErrUnauthenticated = errors.New("authentication required")

	// ErrCaseNotFound masks both true absence and lack of read access so an
	// unauthorized caller cannot probe for resource existence.
	ErrCaseNotFound = errors.New("case not found")

	// ErrForbidden is reserved for callers that can already read the case but
	// lack the specific privilege the operation needs.
	ErrForbidden = errors.New("forbidden")

	ErrInvalidCaseInput     = errors.New("invalid case input")
	ErrInvalidIdentity      = errors.New("invalid identity")
	ErrInvalidDecision      = errors.New("invalid decision")
	ErrInvalidAccessRequest = errors.New("invalid access request")

	ErrAlreadyHasAccess = errors.New("access already granted")
	ErrDuplicateRequest = errors.New("access request already pending")
	ErrNoPendingRequest = errors.New("no pending access request")

	ErrStoreInvariantBroke = errors.New("store invariant violated")
)
