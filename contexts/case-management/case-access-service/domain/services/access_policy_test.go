package services

import (
	"testing"
	"time"

	"lexcase/contexts/case-management/case-access-service/domain/entities"
)

func fixtureCase(caseID string, ownerID string) entities.Case {
	return entities.Case{
		CaseID:    caseID,
		OwnerID:   ownerID,
		Title:     "Contract dispute",
		Status:    entities.CaseStatusOpen,
		CreatedAt: time.Now().Add(-time.Hour),
		UpdatedAt: time.Now().Add(-time.Hour),
	}
}

func approvedGrant(caseID string, lawyerID string) entities.AccessGrant {
	return entities.AccessGrant{
		GrantID:     "grant-" + caseID + "-" + lawyerID,
		CaseID:      caseID,
		LawyerID:    lawyerID,
		Status:      entities.GrantStatusApproved,
		RequestedAt: time.Now().Add(-time.Hour),
	}
}

func TestCanReadTruthTable(t *testing.T) {
	owner := entities.Identity{ID: "client-1", Role: entities.RoleClient}
	otherClient := entities.Identity{ID: "client-2", Role: entities.RoleClient}
	grantedLawyer := entities.Identity{ID: "lawyer-1", Role: entities.RoleLawyer}
	otherLawyer := entities.Identity{ID: "lawyer-2", Role: entities.RoleLawyer}
	admin := entities.Identity{ID: "admin-1", Role: entities.RoleAdmin}

	c := fixtureCase("case-1", owner.ID)
	grants := []entities.AccessGrant{approvedGrant("case-1", grantedLawyer.ID)}

	tests := []struct {
		name     string
		identity entities.Identity
		grants   []entities.AccessGrant
		want     bool
	}{
		{"owner reads own case", owner, nil, true},
		{"other client denied", otherClient, nil, false},
		{"lawyer with approved grant reads", grantedLawyer, grants, true},
		{"lawyer without grant denied", otherLawyer, grants, false},
		{"admin reads any case", admin, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := PolicyFor(tt.identity.Role)
			if got := policy.CanRead(tt.identity, c, tt.grants); got != tt.want {
				t.Fatalf("CanRead = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPendingGrantDoesNotGrantRead(t *testing.T) {
	lawyer := entities.Identity{ID: "lawyer-1", Role: entities.RoleLawyer}
	c := fixtureCase("case-1", "client-1")
	pending := []entities.AccessGrant{{
		GrantID:     "grant-1",
		CaseID:      "case-1",
		LawyerID:    lawyer.ID,
		Status:      entities.GrantStatusPending,
		RequestedAt: time.Now(),
	}}

	if PolicyFor(lawyer.Role).CanRead(lawyer, c, pending) {
		t.Fatalf("pending grant must not confer read access")
	}
}

func TestRevokedStatusesDoNotGrantRead(t *testing.T) {
	lawyer := entities.Identity{ID: "lawyer-1", Role: entities.RoleLawyer}
	c := fixtureCase("case-1", "client-1")

	for _, status := range []entities.GrantStatus{
		entities.GrantStatusRejected,
		entities.GrantStatusWithdrawn,
	} {
		grants := []entities.AccessGrant{{
			GrantID:     "grant-1",
			CaseID:      "case-1",
			LawyerID:    lawyer.ID,
			Status:      status,
			RequestedAt: time.Now(),
		}}
		if PolicyFor(lawyer.Role).CanRead(lawyer, c, grants) {
			t.Fatalf("status %s must not confer read access", status)
		}
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	stranger := entities.Identity{ID: "user-1", Role: entities.Role("paralegal")}
	c := fixtureCase("case-1", "user-1")

	policy := PolicyFor(stranger.Role)
	if policy.CanRead(stranger, c, nil) {
		t.Fatalf("unknown role must not read")
	}
	if policy.IsOwner(stranger, c) {
		t.Fatalf("unknown role must not own")
	}
	if ids := policy.VisibleCaseIDs(stranger, []entities.Case{c}, nil); len(ids) != 0 {
		t.Fatalf("unknown role must see no cases, got %v", ids)
	}
	if policy.Scope() != ScopeNone {
		t.Fatalf("unknown role scope = %s, want %s", policy.Scope(), ScopeNone)
	}
}

func TestLawyerIsNeverOwner(t *testing.T) {
	lawyer := entities.Identity{ID: "lawyer-1", Role: entities.RoleLawyer}
	c := fixtureCase("case-1", "client-1")
	grants := []entities.AccessGrant{approvedGrant("case-1", lawyer.ID)}

	policy := PolicyFor(lawyer.Role)
	if !policy.CanRead(lawyer, c, grants) {
		t.Fatalf("approved lawyer should read")
	}
	if policy.IsOwner(lawyer, c) {
		t.Fatalf("read access must not imply ownership")
	}
}

func TestZeroValueCaseDenied(t *testing.T) {
	admin := entities.Identity{ID: "admin-1", Role: entities.RoleAdmin}
	owner := entities.Identity{ID: "client-1", Role: entities.RoleClient}

	if PolicyFor(admin.Role).CanRead(admin, entities.Case{}, nil) {
		t.Fatalf("zero-value case must be unreadable even for admins")
	}
	if PolicyFor(owner.Role).IsOwner(owner, entities.Case{}) {
		t.Fatalf("zero-value case must have no owner")
	}
}

func TestVisibleCaseIDsPerRole(t *testing.T) {
	owner := entities.Identity{ID: "client-1", Role: entities.RoleClient}
	lawyer := entities.Identity{ID: "lawyer-1", Role: entities.RoleLawyer}
	admin := entities.Identity{ID: "admin-1", Role: entities.RoleAdmin}

	cases := []entities.Case{
		fixtureCase("case-1", "client-1"),
		fixtureCase("case-2", "client-2"),
		fixtureCase("case-3", "client-1"),
	}
	grants := []entities.AccessGrant{approvedGrant("case-2", lawyer.ID)}

	clientIDs := PolicyFor(owner.Role).VisibleCaseIDs(owner, cases, nil)
	if len(clientIDs) != 2 {
		t.Fatalf("client should see 2 owned cases, got %v", clientIDs)
	}

	lawyerIDs := PolicyFor(lawyer.Role).VisibleCaseIDs(lawyer, cases, grants)
	if len(lawyerIDs) != 1 || lawyerIDs[0] != "case-2" {
		t.Fatalf("lawyer should see only granted case, got %v", lawyerIDs)
	}

	adminIDs := PolicyFor(admin.Role).VisibleCaseIDs(admin, cases, nil)
	if len(adminIDs) != 3 {
		t.Fatalf("admin should see all cases, got %v", adminIDs)
	}
}

func TestGrantForOtherCaseDoesNotLeak(t *testing.T) {
	lawyer := entities.Identity{ID: "lawyer-1", Role: entities.RoleLawyer}
	c := fixtureCase("case-1", "client-1")
	grants := []entities.AccessGrant{approvedGrant("case-other", lawyer.ID)}

	if PolicyFor(lawyer.Role).CanRead(lawyer, c, grants) {
		t.Fatalf("grant on another case must not apply")
	}
}
