package caseaccess_test

import (
	"context"
	"errors"
	"testing"

	caseaccess "lexcase/contexts/case-management/case-access-service"
	"lexcase/contexts/case-management/case-access-service/domain/entities"
	domainerrors "lexcase/contexts/case-management/case-access-service/domain/errors"
	httptransport "lexcase/contexts/case-management/case-access-service/transport/http"
)

var (
	clientOwner = entities.Identity{ID: "client-1", Email: "owner@example.com", Role: entities.RoleClient}
	clientOther = entities.Identity{ID: "client-2", Email: "other@example.com", Role: entities.RoleClient}
	lawyerOne   = entities.Identity{ID: "lawyer-1", Email: "lawyer1@example.com", Role: entities.RoleLawyer}
	lawyerTwo   = entities.Identity{ID: "lawyer-2", Email: "lawyer2@example.com", Role: entities.RoleLawyer}
	adminUser   = entities.Identity{ID: "admin-1", Email: "admin@example.com", Role: entities.RoleAdmin}
)

func newModuleWithCase(t *testing.T) (caseaccess.Module, string) {
	t.Helper()
	module := caseaccess.NewInMemoryModule(nil)

	created, err := module.Handler.CreateCaseHandler(
		context.Background(),
		clientOwner,
		httptransport.CreateCaseRequest{Title: "Contract dispute", Category: "contract"},
	)
	if err != nil {
		t.Fatalf("seed case: %v", err)
	}
	return module, created.Case.CaseID
}

func TestRequestApproveReadFlow(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	_, err := module.Handler.GetCaseHandler(ctx, lawyerOne, caseID)
	if !errors.Is(err, domainerrors.ErrCaseNotFound) {
		t.Fatalf("lawyer without grant should see not-found, got %v", err)
	}

	requested, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID)
	if err != nil {
		t.Fatalf("request access: %v", err)
	}
	if requested.Grant.Status != "pending" {
		t.Fatalf("fresh request status = %s, want pending", requested.Grant.Status)
	}

	decided, err := module.Handler.DecideAccessHandler(
		ctx, clientOwner, caseID, lawyerOne.ID,
		httptransport.DecideAccessRequest{Decision: "approve"},
	)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if decided.Grant.Status != "approved" || decided.Grant.DecidedBy != clientOwner.ID {
		t.Fatalf("unexpected decision result: %+v", decided.Grant)
	}

	viewed, err := module.Handler.GetCaseHandler(ctx, lawyerOne, caseID)
	if err != nil {
		t.Fatalf("approved lawyer should read the case: %v", err)
	}
	if viewed.Case.CaseID != caseID {
		t.Fatalf("viewed wrong case: %s", viewed.Case.CaseID)
	}
}

func TestNotFoundMaskIsUniform(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	_, missingErr := module.Handler.GetCaseHandler(ctx, lawyerOne, "case-missing")
	_, deniedErr := module.Handler.GetCaseHandler(ctx, lawyerOne, caseID)

	if !errors.Is(missingErr, domainerrors.ErrCaseNotFound) {
		t.Fatalf("missing case error = %v", missingErr)
	}
	if !errors.Is(deniedErr, domainerrors.ErrCaseNotFound) {
		t.Fatalf("denied case error = %v", deniedErr)
	}

	_, otherClientErr := module.Handler.GetCaseHandler(ctx, clientOther, caseID)
	if !errors.Is(otherClientErr, domainerrors.ErrCaseNotFound) {
		t.Fatalf("other client should get the same mask, got %v", otherClientErr)
	}
}

func TestDuplicateAndApprovedRequestConflicts(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	if _, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID)
	if !errors.Is(err, domainerrors.ErrDuplicateRequest) {
		t.Fatalf("repeat while pending should conflict, got %v", err)
	}

	if _, err := module.Handler.DecideAccessHandler(
		ctx, clientOwner, caseID, lawyerOne.ID,
		httptransport.DecideAccessRequest{Decision: "approve"},
	); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err = module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID)
	if !errors.Is(err, domainerrors.ErrAlreadyHasAccess) {
		t.Fatalf("request with approved grant should conflict, got %v", err)
	}
}

func TestWithdrawThenRerequest(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	if _, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID); err != nil {
		t.Fatalf("request: %v", err)
	}

	withdrawn, err := module.Handler.WithdrawAccessHandler(ctx, lawyerOne, caseID)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawn.Grant.Status != "withdrawn" {
		t.Fatalf("status = %s, want withdrawn", withdrawn.Grant.Status)
	}

	_, err = module.Handler.WithdrawAccessHandler(ctx, lawyerOne, caseID)
	if !errors.Is(err, domainerrors.ErrNoPendingRequest) {
		t.Fatalf("second withdraw should find nothing pending, got %v", err)
	}

	rerequested, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID)
	if err != nil {
		t.Fatalf("re-request after withdrawal: %v", err)
	}
	if rerequested.Grant.Status != "pending" {
		t.Fatalf("re-request status = %s, want pending", rerequested.Grant.Status)
	}
}

func TestDecideAuthorization(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	if _, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID); err != nil {
		t.Fatalf("request: %v", err)
	}

	_, err := module.Handler.DecideAccessHandler(
		ctx, clientOther, caseID, lawyerOne.ID,
		httptransport.DecideAccessRequest{Decision: "approve"},
	)
	if !errors.Is(err, domainerrors.ErrCaseNotFound) {
		t.Fatalf("non-owner without read access should see the mask, got %v", err)
	}

	_, err = module.Handler.DecideAccessHandler(
		ctx, clientOwner, caseID, lawyerOne.ID,
		httptransport.DecideAccessRequest{Decision: "escalate"},
	)
	if !errors.Is(err, domainerrors.ErrInvalidDecision) {
		t.Fatalf("unknown decision should be invalid, got %v", err)
	}

	if _, err := module.Handler.DecideAccessHandler(
		ctx, adminUser, caseID, lawyerOne.ID,
		httptransport.DecideAccessRequest{Decision: "reject"},
	); err != nil {
		t.Fatalf("admin should decide: %v", err)
	}

	_, err = module.Handler.DecideAccessHandler(
		ctx, clientOwner, caseID, lawyerOne.ID,
		httptransport.DecideAccessRequest{Decision: "approve"},
	)
	if !errors.Is(err, domainerrors.ErrNoPendingRequest) {
		t.Fatalf("decision on settled request should conflict, got %v", err)
	}
}

func TestReadAccessDoesNotAllowMutation(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	if _, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := module.Handler.DecideAccessHandler(
		ctx, clientOwner, caseID, lawyerOne.ID,
		httptransport.DecideAccessRequest{Decision: "approve"},
	); err != nil {
		t.Fatalf("approve: %v", err)
	}

	title := "Amended title"
	_, err := module.Handler.UpdateCaseHandler(ctx, lawyerOne, caseID, httptransport.UpdateCaseRequest{Title: &title})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("reader without ownership should get forbidden, got %v", err)
	}

	_, err = module.Handler.UpdateCaseHandler(ctx, lawyerTwo, caseID, httptransport.UpdateCaseRequest{Title: &title})
	if !errors.Is(err, domainerrors.ErrCaseNotFound) {
		t.Fatalf("stranger should get the mask, got %v", err)
	}

	updated, err := module.Handler.UpdateCaseHandler(ctx, clientOwner, caseID, httptransport.UpdateCaseRequest{Title: &title})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Case.Title != title {
		t.Fatalf("title = %s, want %s", updated.Case.Title, title)
	}
}

func TestListVisibilityPerRole(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	if _, err := module.Handler.CreateCaseHandler(
		ctx, clientOther,
		httptransport.CreateCaseRequest{Title: "Estate planning", Category: "estate"},
	); err != nil {
		t.Fatalf("seed second case: %v", err)
	}

	if _, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := module.Handler.DecideAccessHandler(
		ctx, clientOwner, caseID, lawyerOne.ID,
		httptransport.DecideAccessRequest{Decision: "approve"},
	); err != nil {
		t.Fatalf("approve: %v", err)
	}

	ownerList, err := module.Handler.ListCasesHandler(ctx, clientOwner)
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(ownerList.Items) != 1 || ownerList.Items[0].CaseID != caseID {
		t.Fatalf("owner should list only owned case, got %+v", ownerList.Items)
	}

	lawyerList, err := module.Handler.ListCasesHandler(ctx, lawyerOne)
	if err != nil {
		t.Fatalf("lawyer list: %v", err)
	}
	if len(lawyerList.Items) != 1 || lawyerList.Items[0].CaseID != caseID {
		t.Fatalf("lawyer should list only granted case, got %+v", lawyerList.Items)
	}

	adminList, err := module.Handler.ListCasesHandler(ctx, adminUser)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminList.Items) != 2 {
		t.Fatalf("admin should list all cases, got %+v", adminList.Items)
	}

	strangerList, err := module.Handler.ListCasesHandler(ctx, lawyerTwo)
	if err != nil {
		t.Fatalf("lawyer without grants list: %v", err)
	}
	if len(strangerList.Items) != 0 {
		t.Fatalf("lawyer without grants should list nothing, got %+v", strangerList.Items)
	}
}

func TestBrowseDirectory(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	if _, err := module.Handler.CreateCaseHandler(
		ctx, clientOther,
		httptransport.CreateCaseRequest{Title: "Estate planning", Category: "estate"},
	); err != nil {
		t.Fatalf("seed second case: %v", err)
	}

	browse, err := module.Handler.BrowseCasesHandler(ctx, lawyerOne, "")
	if err != nil {
		t.Fatalf("lawyer browse: %v", err)
	}
	if len(browse.Items) != 2 {
		t.Fatalf("browse should span the directory, got %+v", browse.Items)
	}

	filtered, err := module.Handler.BrowseCasesHandler(ctx, lawyerOne, "contract")
	if err != nil {
		t.Fatalf("filtered browse: %v", err)
	}
	if len(filtered.Items) != 1 || filtered.Items[0].CaseID != caseID {
		t.Fatalf("category filter should keep one case, got %+v", filtered.Items)
	}

	_, err = module.Handler.BrowseCasesHandler(ctx, clientOwner, "")
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("clients must not browse the directory, got %v", err)
	}
}

func TestListCaseAccessRequests(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	if _, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID); err != nil {
		t.Fatalf("request one: %v", err)
	}
	if _, err := module.Handler.RequestAccessHandler(ctx, lawyerTwo, caseID); err != nil {
		t.Fatalf("request two: %v", err)
	}
	if _, err := module.Handler.DecideAccessHandler(
		ctx, clientOwner, caseID, lawyerOne.ID,
		httptransport.DecideAccessRequest{Decision: "reject"},
	); err != nil {
		t.Fatalf("reject: %v", err)
	}

	list, err := module.Handler.ListCaseAccessRequestsHandler(ctx, clientOwner, caseID)
	if err != nil {
		t.Fatalf("owner list requests: %v", err)
	}
	if len(list.Items) != 2 {
		t.Fatalf("expected both grant records, got %+v", list.Items)
	}
	if list.Items[0].Status != "pending" {
		t.Fatalf("pending requests should sort first, got %+v", list.Items)
	}

	_, err = module.Handler.ListCaseAccessRequestsHandler(ctx, lawyerOne, caseID)
	if !errors.Is(err, domainerrors.ErrCaseNotFound) {
		t.Fatalf("requester without read access should see the mask, got %v", err)
	}
}

func TestListMyAccessRequests(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	if _, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID); err != nil {
		t.Fatalf("request: %v", err)
	}

	mine, err := module.Handler.ListMyAccessRequestsHandler(ctx, lawyerOne, nil)
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine.Items) != 1 || mine.Items[0].CaseID != caseID {
		t.Fatalf("expected own request, got %+v", mine.Items)
	}

	none, err := module.Handler.ListMyAccessRequestsHandler(ctx, lawyerOne, []string{"approved"})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(none.Items) != 0 {
		t.Fatalf("approved filter should be empty, got %+v", none.Items)
	}

	_, err = module.Handler.ListMyAccessRequestsHandler(ctx, clientOwner, nil)
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("non-lawyers have no request inbox, got %v", err)
	}
}

func TestCreateCaseRoleRules(t *testing.T) {
	module := caseaccess.NewInMemoryModule(nil)
	ctx := context.Background()

	_, err := module.Handler.CreateCaseHandler(ctx, lawyerOne, httptransport.CreateCaseRequest{Title: "x"})
	if !errors.Is(err, domainerrors.ErrForbidden) {
		t.Fatalf("lawyers must not open cases, got %v", err)
	}

	_, err = module.Handler.CreateCaseHandler(ctx, adminUser, httptransport.CreateCaseRequest{Title: "x"})
	if !errors.Is(err, domainerrors.ErrInvalidCaseInput) {
		t.Fatalf("admin create without owner should be invalid, got %v", err)
	}

	created, err := module.Handler.CreateCaseHandler(ctx, adminUser, httptransport.CreateCaseRequest{
		OwnerID: clientOwner.ID,
		Title:   "Opened on behalf",
	})
	if err != nil {
		t.Fatalf("admin create for client: %v", err)
	}
	if created.Case.OwnerID != clientOwner.ID {
		t.Fatalf("owner = %s, want %s", created.Case.OwnerID, clientOwner.ID)
	}
}

func TestWorkflowQueuesNotifications(t *testing.T) {
	module, caseID := newModuleWithCase(t)
	ctx := context.Background()

	if _, err := module.Handler.RequestAccessHandler(ctx, lawyerOne, caseID); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := module.Handler.DecideAccessHandler(
		ctx, clientOwner, caseID, lawyerOne.ID,
		httptransport.DecideAccessRequest{Decision: "approve"},
	); err != nil {
		t.Fatalf("approve: %v", err)
	}

	events := module.Store.Notifications()
	if len(events) != 2 {
		t.Fatalf("expected request and decision notifications, got %d", len(events))
	}
	if events[0].EventType != "case.access.requested" || events[1].EventType != "case.access.decided" {
		t.Fatalf("unexpected event types: %s, %s", events[0].EventType, events[1].EventType)
	}
}

func TestUnauthenticatedIdentityRejected(t *testing.T) {
	module := caseaccess.NewInMemoryModule(nil)
	ctx := context.Background()

	_, err := module.Handler.ListCasesHandler(ctx, entities.Identity{})
	if !errors.Is(err, domainerrors.ErrUnauthenticated) {
		t.Fatalf("empty identity should be unauthenticated, got %v", err)
	}
}
