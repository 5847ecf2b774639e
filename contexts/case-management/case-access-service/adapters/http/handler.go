package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "lexcase/contexts/case-management/case-access-service/application"
	"lexcase/contexts/case-management/case-access-service/application/commands"
	"lexcase/contexts/case-management/case-access-service/application/queries"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	"lexcase/contexts/case-management/case-access-service/ports"
	httptransport "lexcase/contexts/case-management/case-access-service/transport/http"
)

type Handler struct {
	CreateCase       commands.CreateCaseUseCase
	UpdateCase       commands.UpdateCaseUseCase
	RequestAccess    commands.RequestAccessUseCase
	WithdrawAccess   commands.WithdrawAccessUseCase
	DecideAccess     commands.DecideAccessUseCase
	ViewCase         queries.ViewCaseUseCase
	ListCases        queries.ListAccessibleCasesUseCase
	BrowseCases      queries.BrowseCasesUseCase
	ListCaseRequests queries.ListCaseAccessRequestsUseCase
	ListMyRequests   queries.ListMyAccessRequestsUseCase
	Logger           *slog.Logger
}

// CreateCaseHandler godoc
// @Summary Open a new case
// @Description Creates a case owned by the calling client (admins name the owner).
// @Tags case-access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body httptransport.CreateCaseRequest true "Case fields"
// @Success 201 {object} httptransport.CreateCaseResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/cases [post]
func (h Handler) CreateCaseHandler(
	ctx context.Context,
	identity entities.Identity,
	req httptransport.CreateCaseRequest,
) (httptransport.CreateCaseResponse, error) {
	result, err := h.CreateCase.Execute(ctx, commands.CreateCaseCommand{
		Identity:    identity,
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return httptransport.CreateCaseResponse{}, err
	}
	return httptransport.CreateCaseResponse{Case: mapCase(result.Case)}, nil
}

// UpdateCaseHandler godoc
// @Summary Update case fields
// @Description Requires ownership; readable-but-not-owned yields 403, everything else the not-found mask.
// @Tags case-access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param case_id path string true "Case id"
// @Param body body httptransport.UpdateCaseRequest true "Fields to change"
// @Success 200 {object} httptransport.UpdateCaseResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/cases/{case_id} [patch]
func (h Handler) UpdateCaseHandler(
	ctx context.Context,
	identity entities.Identity,
	caseID string,
	req httptransport.UpdateCaseRequest,
) (httptransport.UpdateCaseResponse, error) {
	update := ports.CaseUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.Status != nil {
		status := entities.CaseStatus(*req.Status)
		update.Status = &status
	}

	result, err := h.UpdateCase.Execute(ctx, commands.UpdateCaseCommand{
		Identity: identity,
		CaseID:   caseID,
		Update:   update,
	})
	if err != nil {
		return httptransport.UpdateCaseResponse{}, err
	}
	return httptransport.UpdateCaseResponse{Case: mapCase(result.Case)}, nil
}

// GetCaseHandler godoc
// @Summary Get one case
// @Description Returns the case when the caller has read access; otherwise the not-found mask.
// @Tags case-access
// @Produce json
// @Security BearerAuth
// @Param case_id path string true "Case id"
// @Success 200 {object} httptransport.GetCaseResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/cases/{case_id} [get]
func (h Handler) GetCaseHandler(
	ctx context.Context,
	identity entities.Identity,
	caseID string,
) (httptransport.GetCaseResponse, error) {
	result, err := h.ViewCase.Execute(ctx, queries.ViewCaseQuery{Identity: identity, CaseID: caseID})
	if err != nil {
		return httptransport.GetCaseResponse{}, err
	}
	return httptransport.GetCaseResponse{Case: mapCase(result.Case)}, nil
}

// ListCasesHandler godoc
// @Summary List accessible cases
// @Description Owned cases for clients, approved-grant cases for lawyers, all cases for admins.
// @Tags case-access
// @Produce json
// @Security BearerAuth
// @Success 200 {object} httptransport.ListCasesResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/cases [get]
func (h Handler) ListCasesHandler(
	ctx context.Context,
	identity entities.Identity,
) (httptransport.ListCasesResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("case list request received",
		"event", "http_case_list_received",
		"module", "case-management/case-access-service",
		"layer", "transport",
		"actor_id", identity.ID,
	)

	result, err := h.ListCases.Execute(ctx, queries.ListAccessibleCasesQuery{Identity: identity})
	if err != nil {
		return httptransport.ListCasesResponse{}, err
	}
	return httptransport.ListCasesResponse{Items: mapCases(result.Cases)}, nil
}

// BrowseCasesHandler godoc
// @Summary Browse the case directory
// @Description Discovery listing across all cases for lawyers seeking new engagements.
// @Tags case-access
// @Produce json
// @Security BearerAuth
// @Param category query string false "Category filter"
// @Success 200 {object} httptransport.ListCasesResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/cases/browse [get]
func (h Handler) BrowseCasesHandler(
	ctx context.Context,
	identity entities.Identity,
	category string,
) (httptransport.ListCasesResponse, error) {
	result, err := h.BrowseCases.Execute(ctx, queries.BrowseCasesQuery{Identity: identity, Category: category})
	if err != nil {
		return httptransport.ListCasesResponse{}, err
	}
	return httptransport.ListCasesResponse{Items: mapCases(result.Cases)}, nil
}

// RequestAccessHandler godoc
// @Summary Request access to a case
// @Description Creates a pending access grant for the calling lawyer and notifies the owner.
// @Tags case-access
// @Produce json
// @Security BearerAuth
// @Param case_id path string true "Case id"
// @Success 201 {object} httptransport.RequestAccessResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/cases/{case_id}/access-requests [post]
func (h Handler) RequestAccessHandler(
	ctx context.Context,
	identity entities.Identity,
	caseID string,
) (httptransport.RequestAccessResponse, error) {
	result, err := h.RequestAccess.Execute(ctx, commands.RequestAccessCommand{Identity: identity, CaseID: caseID})
	if err != nil {
		return httptransport.RequestAccessResponse{}, err
	}
	return httptransport.RequestAccessResponse{Grant: mapGrant(result.Grant)}, nil
}

// WithdrawAccessHandler godoc
// @Summary Withdraw a pending access request
// @Description Transitions the caller's pending grant to withdrawn.
// @Tags case-access
// @Produce json
// @Security BearerAuth
// @Param case_id path string true "Case id"
// @Success 200 {object} httptransport.WithdrawAccessResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/cases/{case_id}/access-requests [delete]
func (h Handler) WithdrawAccessHandler(
	ctx context.Context,
	identity entities.Identity,
	caseID string,
) (httptransport.WithdrawAccessResponse, error) {
	result, err := h.WithdrawAccess.Execute(ctx, commands.WithdrawAccessCommand{Identity: identity, CaseID: caseID})
	if err != nil {
		return httptransport.WithdrawAccessResponse{}, err
	}
	return httptransport.WithdrawAccessResponse{Grant: mapGrant(result.Grant)}, nil
}

// DecideAccessHandler godoc
// @Summary Decide a pending access request
// @Description Approves or rejects the lawyer's pending grant; owner or admin only.
// @Tags case-access
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param case_id path string true "Case id"
// @Param lawyer_id path string true "Requesting lawyer id"
// @Param body body httptransport.DecideAccessRequest true "approve or reject"
// @Success 200 {object} httptransport.DecideAccessResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/cases/{case_id}/access-requests/{lawyer_id}/decision [post]
func (h Handler) DecideAccessHandler(
	ctx context.Context,
	identity entities.Identity,
	caseID string,
	lawyerID string,
	req httptransport.DecideAccessRequest,
) (httptransport.DecideAccessResponse, error) {
	result, err := h.DecideAccess.Execute(ctx, commands.DecideAccessCommand{
		Identity: identity,
		CaseID:   caseID,
		LawyerID: lawyerID,
		Decision: commands.AccessDecision(req.Decision),
	})
	if err != nil {
		return httptransport.DecideAccessResponse{}, err
	}
	return httptransport.DecideAccessResponse{Grant: mapGrant(result.Grant)}, nil
}

// ListCaseAccessRequestsHandler godoc
// @Summary List access requests for a case
// @Description Grant history for the owner's decision screen, pending first.
// @Tags case-access
// @Produce json
// @Security BearerAuth
// @Param case_id path string true "Case id"
// @Success 200 {object} httptransport.ListAccessRequestsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/cases/{case_id}/access-requests [get]
func (h Handler) ListCaseAccessRequestsHandler(
	ctx context.Context,
	identity entities.Identity,
	caseID string,
) (httptransport.ListAccessRequestsResponse, error) {
	result, err := h.ListCaseRequests.Execute(ctx, queries.ListCaseAccessRequestsQuery{Identity: identity, CaseID: caseID})
	if err != nil {
		return httptransport.ListAccessRequestsResponse{}, err
	}
	return httptransport.ListAccessRequestsResponse{Items: mapGrants(result.Grants)}, nil
}

// ListMyAccessRequestsHandler godoc
// @Summary List the caller's access requests
// @Description The calling lawyer's requests across all cases, newest first.
// @Tags case-access
// @Produce json
// @Security BearerAuth
// @Param status query []string false "Status filter"
// @Success 200 {object} httptransport.ListAccessRequestsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /api/v1/access-requests [get]
func (h Handler) ListMyAccessRequestsHandler(
	ctx context.Context,
	identity entities.Identity,
	statuses []string,
) (httptransport.ListAccessRequestsResponse, error) {
	filter := make([]entities.GrantStatus, 0, len(statuses))
	for _, status := range statuses {
		filter = append(filter, entities.GrantStatus(status))
	}

	result, err := h.ListMyRequests.Execute(ctx, queries.ListMyAccessRequestsQuery{Identity: identity, Statuses: filter})
	if err != nil {
		return httptransport.ListAccessRequestsResponse{}, err
	}
	return httptransport.ListAccessRequestsResponse{Items: mapGrants(result.Grants)}, nil
}

func mapCase(c entities.Case) httptransport.CaseDTO {
	return httptransport.CaseDTO{
		CaseID:      c.CaseID,
		OwnerID:     c.OwnerID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapCases(cases []entities.Case) []httptransport.CaseDTO {
	items := make([]httptransport.CaseDTO, 0, len(cases))
	for _, c := range cases {
		items = append(items, mapCase(c))
	}
	return items
}

func mapGrant(g entities.AccessGrant) httptransport.AccessGrantDTO {
	dto := httptransport.AccessGrantDTO{
		GrantID:     g.GrantID,
		CaseID:      g.CaseID,
		LawyerID:    g.LawyerID,
		Status:      string(g.Status),
		RequestedAt: g.RequestedAt.UTC().Format(time.RFC3339),
		DecidedBy:   g.DecidedBy,
	}
	if g.DecidedAt != nil {
		dto.DecidedAt = g.DecidedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func mapGrants(grants []entities.AccessGrant) []httptransport.AccessGrantDTO {
	items := make([]httptransport.AccessGrantDTO, 0, len(grants))
	for _, g := range grants {
		items = append(items, mapGrant(g))
	}
	return items
}
