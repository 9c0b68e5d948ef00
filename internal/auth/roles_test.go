package auth

import (
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestActorCapabilities(t *testing.T) {
	dept := "dep-1"
	cases := []struct {
		name      string
		actor     Actor
		triage    bool
		viewAll   bool
		directory bool
	}{
		{"user", Actor{Role: domain.RoleUser}, false, false, false},
		{"department admin", Actor{Role: domain.RoleAdmin, DepartmentID: &dept}, true, false, false},
		{"admin without department", Actor{Role: domain.RoleAdmin}, true, true, false},
		{"superadmin", Actor{Role: domain.RoleSuperadmin}, true, true, true},
	}
	for _, tc := range cases {
		if got := tc.actor.CanTriage(); got != tc.triage {
			t.Fatalf("%s: CanTriage = %v, want %v", tc.name, got, tc.triage)
		}
		if got := tc.actor.CanViewAll(); got != tc.viewAll {
			t.Fatalf("%s: CanViewAll = %v, want %v", tc.name, got, tc.viewAll)
		}
		if got := tc.actor.CanManageDirectory(); got != tc.directory {
			t.Fatalf("%s: CanManageDirectory = %v, want %v", tc.name, got, tc.directory)
		}
	}
}

func TestActorFromUser(t *testing.T) {
	dept := "dep-9"
	user := &domain.User{
		ID:           "usr-7",
		Email:        "ops@acme.com",
		Role:         domain.RoleAdmin,
		DepartmentID: &dept,
	}
	actor := ActorFromUser(user)
	if actor.ID != "usr-7" || actor.Email != "ops@acme.com" {
		t.Fatalf("unexpected identity: %+v", actor)
	}
	if actor.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", actor.Role)
	}
	if actor.DepartmentID == nil || *actor.DepartmentID != dept {
		t.Fatalf("expected department carried over")
	}
}
