package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	caseaccess "lexcase/contexts/case-management/case-access-service"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	httptransport "lexcase/contexts/case-management/case-access-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "lexcase/internal/platform/httpserver/docs"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	caseAccess    caseaccess.Module
	browseEnabled bool
}

func New(
	caseAccessModule caseaccess.Module,
	logger *slog.Logger,
	addr string,
	browseEnabled bool,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		caseAccess:    caseAccessModule,
		browseEnabled: browseEnabled,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/v1/cases", s.handleCreateCase)
	s.mux.HandleFunc("GET /api/v1/cases", s.handleListCases)
	s.mux.HandleFunc("GET /api/v1/cases/{case_id}", s.handleGetCase)
	s.mux.HandleFunc("PATCH /api/v1/cases/{case_id}", s.handleUpdateCase)

	s.mux.HandleFunc("POST /api/v1/cases/{case_id}/access-requests", s.handleRequestAccess)
	s.mux.HandleFunc("DELETE /api/v1/cases/{case_id}/access-requests", s.handleWithdrawAccess)
	s.mux.HandleFunc("GET /api/v1/cases/{case_id}/access-requests", s.handleListCaseAccessRequests)
	s.mux.HandleFunc("POST /api/v1/cases/{case_id}/access-requests/{lawyer_id}/decision", s.handleDecideAccess)
	s.mux.HandleFunc("GET /api/v1/access-requests", s.handleListMyAccessRequests)

	if s.browseEnabled {
		s.mux.HandleFunc("GET /api/v1/cases/browse", s.handleBrowseCases)
	}
}

func (s *Server) handleCreateCase(w http.ResponseWriter, r *http.Request) {
	identity, ok := resolveIdentity(r)
	if !ok {
		writeDomainError(w, domainerrors.ErrUnauthenticated)
		return
	}

	var req httptransport.CreateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.caseAccess.Handler.CreateCaseHandler(r.Context(), identity, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	identity, ok := resolveIdentity(r)
	if !ok {
		writeDomainError(w, domainerrors.ErrUnauthenticated)
		return
	}

	resp, err := s.caseAccess.Handler.ListCasesHandler(r.Context(), identity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBrowseCases(w http.ResponseWriter, r *http.Request) {
	identity, ok := resolveIdentity(r)
	if !ok {
		writeDomainError(w, domainerrors.ErrUnauthenticated)
		return
	}

	resp, err := s.caseAccess.Handler.BrowseCasesHandler(r.Context(), identity, r.URL.Query().Get("category"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	identity, ok := resolveIdentity(r)
	if !ok {
		writeDomainError(w, domainerrors.ErrUnauthenticated)
		return
	}

	resp, err := s.caseAccess.Handler.GetCaseHandler(r.Context(), identity, r.PathValue("case_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateCase(w http.ResponseWriter, r *http.Request) {
	identity, ok := resolveIdentity(r)
	if !ok {
		writeDomainError(w, domainerrors.ErrUnauthenticated)
		return
	}

	var req httptransport.UpdateCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.caseAccess.Handler.UpdateCaseHandler(r.Context(), identity, r.PathValue("case_id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequestAccess(w http.ResponseWriter, r *http.Request) {
	identity, ok := resolveIdentity(r)
	if !ok {
		writeDomainError(w, domainerrors.ErrUnauthenticated)
		return
	}

	resp, err := s.caseAccess.Handler.RequestAccessHandler(r.Context(), identity, r.PathValue("case_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleWithdrawAccess(w http.ResponseWriter, r *http.Request) {
	identity, ok := resolveIdentity(r)
	if !ok {
		writeDomainError(w, domainerrors.ErrUnauthenticated)
		return
	}

	resp, err := s.caseAccess.Handler.WithdrawAccessHandler(r.Context(), identity, r.PathValue("case_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCaseAccessRequests(w http.ResponseWriter, r *http.Request) {
	identity, ok := resolveIdentity(r)
	if !ok {
		writeDomainError(w, domainerrors.ErrUnauthenticated)
		return
	}

	resp, err := s.caseAccess.Handler.ListCaseAccessRequestsHandler(r.Context(), identity, r.PathValue("case_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDecideAccess(w http.ResponseWriter, r *http.Request) {
	identity, ok := resolveIdentity(r)
	if !ok {
		writeDomainError(w, domainerrors.ErrUnauthenticated)
		return
	}

	var req httptransport.DecideAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.caseAccess.Handler.DecideAccessHandler(
		r.Context(),
		identity,
		r.PathValue("case_id"),
		r.PathValue("lawyer_id"),
		req,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListMyAccessRequests(w http.ResponseWriter, r *http.Request) {
	identity, ok := resolveIdentity(r)
	if !ok {
		writeDomainError(w, domainerrors.ErrUnauthenticated)
		return
	}

	resp, err := s.caseAccess.Handler.ListMyAccessRequestsHandler(r.Context(), identity, r.URL.Query()["status"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveIdentity reads the verified identity the upstream gateway injects.
// The gateway owns token verification; an absent id is the explicit
// unauthenticated signal.
func resolveIdentity(r *http.Request) (entities.Identity, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		return entities.Identity{}, false
	}
	return entities.Identity{
		ID:    userID,
		Email: strings.TrimSpace(r.Header.Get("X-User-Email")),
		Role:  entities.Role(strings.ToLower(strings.TrimSpace(r.Header.Get("X-User-Role")))),
	}, true
}

func writeDomainError(w http.ResponseWriter, err error) {
	status, body := httptransport.StatusFor(err)
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, httptransport.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
