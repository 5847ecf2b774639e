package httptransport

import (
	"errors"
	"net/http"

	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
)

// StatusFor maps domain outcomes to the externally observable status and
// error body. The mapping is the application's information-disclosure
// posture and must stay non-enumerating: absence and denied read access
// share one byte-identical not-found response, and 403 only ever appears
// for callers that can already read the resource.
func StatusFor(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, domainerrors.ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorResponse{
			Code:    "unauthenticated",
			Message: "authentication required",
		}
	case errors.Is(err, domainerrors.ErrCaseNotFound):
		// Fixed literal body: the same bytes whether the case is absent or
		// merely unreadable by the caller.
		return http.StatusNotFound, ErrorResponse{
			Code:    "case_not_found",
			Message: "case not found",
		}
	case errors.Is(err, domainerrors.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{
			Code:    "forbidden",
			Message: err.Error(),
		}
	case errors.Is(err, domainerrors.ErrAlreadyHasAccess):
		return http.StatusConflict, ErrorResponse{
			Code:    "already_has_access",
			Message: err.Error(),
		}
	case errors.Is(err, domainerrors.ErrDuplicateRequest):
		return http.StatusConflict, ErrorResponse{
			Code:    "duplicate_request",
			Message: err.Error(),
		}
	case errors.Is(err, domainerrors.ErrNoPendingRequest):
		return http.StatusConflict, ErrorResponse{
			Code:    "no_pending_request",
			Message: err.Error(),
		}
	case errors.Is(err, domainerrors.ErrInvalidCaseInput),
		errors.Is(err, domainerrors.ErrInvalidAccessRequest),
		errors.Is(err, domainerrors.ErrInvalidDecision),
		errors.Is(err, domainerrors.ErrInvalidIdentity):
		return http.StatusBadRequest, ErrorResponse{
			Code:    "invalid_request",
			Message: err.Error(),
		}
	default:
		// Store/infrastructure failures: generic body, details stay in logs.
		return http.StatusInternalServerError, ErrorResponse{
			Code:    "internal_error",
			Message: "internal server error",
		}
	}
}
