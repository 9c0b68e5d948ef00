package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

type ticketFixture struct {
	service     *TicketService
	tickets     *memTicketRepo
	users       *memUserRepo
	departments *memDepartmentRepo
	dispatcher  *recordingDispatcher
	clock       *time.Time
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	tickets := newMemTicketRepo()
	users := newMemUserRepo()
	departments := newMemDepartmentRepo()
	dispatcher := &recordingDispatcher{}

	start := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	clock := &start

	gen := NewNumberGenerator(departments, newMemSequenceReserver())
	gen.now = func() time.Time { return *clock }

	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		UserRepo:       users,
		DepartmentRepo: departments,
		Numbers:        gen,
		Dispatcher:     dispatcher,
	})
	svc.now = func() time.Time { return *clock }

	return &ticketFixture{
		service:     svc,
		tickets:     tickets,
		users:       users,
		departments: departments,
		dispatcher:  dispatcher,
		clock:       clock,
	}
}

func (f *ticketFixture) userActor(email string) *auth.Actor {
	user := f.users.add(domain.User{Name: "Requester", Email: email, Role: domain.RoleUser, Status: domain.UserStatusActive})
	return auth.ActorFromUser(&user)
}

func (f *ticketFixture) adminActor(departmentID *string) *auth.Actor {
	user := f.users.add(domain.User{Name: "Admin", Email: "admin@helpdesk.test", Role: domain.RoleAdmin, DepartmentID: departmentID, Status: domain.UserStatusActive})
	return auth.ActorFromUser(&user)
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error")
	}
	return apperrors.ToDomainError(err).Code
}

func TestCreateFirstTicketOfDay(t *testing.T) {
	f := newTicketFixture(t)
	actor := f.userActor("alice@acme.com")

	ticket, err := f.service.Create(context.Background(), actor, CreateInput{
		Title:       "Printer not working",
		Description: strings.Repeat("x", 40),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ticket.Number != "T250115G001" {
		t.Fatalf("expected T250115G001, got %s", ticket.Number)
	}
	if ticket.Status != domain.TicketStatusPending {
		t.Fatalf("expected pending, got %s", ticket.Status)
	}
	if ticket.Priority != domain.TicketPriorityMedium {
		t.Fatalf("expected default medium priority, got %s", ticket.Priority)
	}
	if ticket.Type != domain.TicketTypeTicket {
		t.Fatalf("expected default ticket type, got %s", ticket.Type)
	}
	if created := f.dispatcher.byType(events.EventTicketCreated); len(created) != 1 {
		t.Fatalf("expected 1 created event, got %d", len(created))
	}
}

func TestCreateValidation(t *testing.T) {
	f := newTicketFixture(t)
	actor := f.userActor("alice@acme.com")
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateInput
	}{
		{"short title", CreateInput{Title: "ab", Description: strings.Repeat("x", 20)}},
		{"long title", CreateInput{Title: strings.Repeat("t", 201), Description: strings.Repeat("x", 20)}},
		{"short description", CreateInput{Title: "Broken VPN", Description: "too short"}},
		{"bad priority", CreateInput{Title: "Broken VPN", Description: strings.Repeat("x", 20), Priority: "URGENT"}},
		{"bad type", CreateInput{Title: "Broken VPN", Description: strings.Repeat("x", 20), Type: "REQUEST"}},
	}
	for _, tc := range cases {
		if _, err := f.service.Create(ctx, actor, tc.input); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		} else if code := errCode(t, err); code != "VALIDATION_FAILED" {
			t.Fatalf("%s: expected VALIDATION_FAILED, got %s", tc.name, code)
		}
	}
}

func TestAssignForcesAssignedStatus(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	dept := f.departments.add(domain.Department{Name: "IT"})
	admin := f.adminActor(&dept.ID)
	admin2 := f.adminActor(&dept.ID)
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{
		Title:       "VPN access",
		Description: strings.Repeat("d", 20),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	assigned, err := f.service.Assign(ctx, admin, ticket.ID, admin2.ID, &dept.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if assigned.Status != domain.TicketStatusAssigned {
		t.Fatalf("expected assigned status, got %s", assigned.Status)
	}
	if assigned.AssignedTo == nil || *assigned.AssignedTo != admin2.ID {
		t.Fatalf("expected assignee %s", admin2.ID)
	}
	if assigned.DepartmentID == nil || *assigned.DepartmentID != dept.ID {
		t.Fatalf("expected department %s", dept.ID)
	}
}

func TestAssignRejectsNonStaffAssignee(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	admin := f.adminActor(nil)
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Broken chair", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Assign(ctx, admin, ticket.ID, creator.ID, nil); err == nil {
		t.Fatalf("expected error assigning to plain user")
	} else if code := errCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", code)
	}
}

func TestResolveSetsDerivedFields(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	admin := f.adminActor(nil)
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Toner empty", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	*f.clock = f.clock.Add(90 * time.Minute)
	resolved, err := f.service.Resolve(ctx, admin, ticket.ID, "Replaced toner cartridge")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != domain.TicketStatusResolved {
		t.Fatalf("expected resolved, got %s", resolved.Status)
	}
	if resolved.SolvedBy == nil || *resolved.SolvedBy != admin.ID {
		t.Fatalf("expected solver %s", admin.ID)
	}
	if resolved.Solution == nil || *resolved.Solution != "Replaced toner cartridge" {
		t.Fatalf("expected solution to be stored")
	}
	if resolved.SolvedAt == nil {
		t.Fatalf("expected solvedAt set")
	}
	if want := resolved.SolvedAt.Sub(resolved.CreatedAt); resolved.TimeToSolve != want {
		t.Fatalf("expected timeToSolve %s, got %s", want, resolved.TimeToSolve)
	}
	if resolved.TimeToSolve <= 0 {
		t.Fatalf("expected positive timeToSolve")
	}
	if got := f.dispatcher.byType(events.EventTicketResolved); len(got) != 1 {
		t.Fatalf("expected 1 resolved event, got %d", len(got))
	}
}

func TestResolveIsOneShot(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	admin := f.adminActor(nil)
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Toner empty", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	*f.clock = f.clock.Add(time.Hour)
	first, err := f.service.Resolve(ctx, admin, ticket.ID, "Replaced toner cartridge")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	*f.clock = f.clock.Add(time.Hour)
	if _, err := f.service.Resolve(ctx, admin, ticket.ID, "Replaced it once more"); err == nil {
		t.Fatalf("expected conflict on second resolve")
	} else if code := errCode(t, err); code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %s", code)
	}

	reloaded, err := f.service.Get(ctx, admin, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reloaded.SolvedAt.Equal(*first.SolvedAt) {
		t.Fatalf("expected first resolution timestamps retained")
	}
}

func TestResolveRequiresSolutionText(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	admin := f.adminActor(nil)
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Toner empty", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Resolve(ctx, admin, ticket.ID, "too short"); err == nil {
		t.Fatalf("expected validation error")
	} else if code := errCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", code)
	}

	reloaded, err := f.service.Get(ctx, admin, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Status != domain.TicketStatusPending || reloaded.SolvedAt != nil {
		t.Fatalf("expected failed resolution to leave no side effects")
	}
}

func TestUpdateStatusCannotMoveBackward(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	admin := f.adminActor(nil)
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Flaky wifi", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inProgress := domain.TicketStatusInProgress
	if _, err := f.service.Update(ctx, admin, ticket.ID, UpdatePatch{Status: &inProgress}); err != nil {
		t.Fatalf("forward transition: %v", err)
	}

	pending := domain.TicketStatusPending
	if _, err := f.service.Update(ctx, admin, ticket.ID, UpdatePatch{Status: &pending}); err == nil {
		t.Fatalf("expected backward transition to fail")
	} else if code := errCode(t, err); code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %s", code)
	}
}

func TestUpdateToClosedRequiresSolution(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	admin := f.adminActor(nil)
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Flaky wifi", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	closed := domain.TicketStatusClosed
	if _, err := f.service.Update(ctx, admin, ticket.ID, UpdatePatch{Status: &closed}); err == nil {
		t.Fatalf("expected missing solution to fail")
	}

	solution := "Rebooted the access point"
	updated, err := f.service.Update(ctx, admin, ticket.ID, UpdatePatch{Status: &closed, Solution: &solution})
	if err != nil {
		t.Fatalf("update to closed: %v", err)
	}
	if updated.Status != domain.TicketStatusClosed || updated.SolvedBy == nil {
		t.Fatalf("expected closed with resolution fields set")
	}

	reopened := domain.TicketStatusInProgress
	if _, err := f.service.Update(ctx, admin, ticket.ID, UpdatePatch{Status: &reopened}); err == nil {
		t.Fatalf("expected closed to be final")
	} else if code := errCode(t, err); code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %s", code)
	}
}

func TestUpdateForbiddenForUsers(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Flaky wifi", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	high := domain.TicketPriorityHigh
	if _, err := f.service.Update(ctx, creator, ticket.ID, UpdatePatch{Priority: &high}); err == nil {
		t.Fatalf("expected forbidden")
	} else if code := errCode(t, err); code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %s", code)
	}
}

func TestAddRemark(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	admin := f.adminActor(nil)
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Flaky wifi", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.AddRemark(ctx, creator, ticket.ID, "hello"); err == nil {
		t.Fatalf("expected remark by user to be forbidden")
	}
	if _, err := f.service.AddRemark(ctx, admin, ticket.ID, ""); err == nil {
		t.Fatalf("expected empty remark to fail validation")
	}
	if _, err := f.service.AddRemark(ctx, admin, ticket.ID, strings.Repeat("r", 1001)); err == nil {
		t.Fatalf("expected oversized remark to fail validation")
	}

	updated, err := f.service.AddRemark(ctx, admin, ticket.ID, "Waiting on vendor")
	if err != nil {
		t.Fatalf("remark: %v", err)
	}
	if len(updated.Remarks) != 1 || updated.Remarks[0].AuthorID != admin.ID {
		t.Fatalf("expected one remark by admin")
	}
}

func TestEditOnlyByCreatorWhileOpen(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	other := f.userActor("bob@acme.com")
	admin := f.adminActor(nil)
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Flaky wifi", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTitle := "Wifi drops every hour"
	if _, err := f.service.Edit(ctx, other, ticket.ID, EditInput{Title: &newTitle}); err == nil {
		t.Fatalf("expected edit by non-creator to be forbidden")
	}

	edited, err := f.service.Edit(ctx, creator, ticket.ID, EditInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Title != newTitle {
		t.Fatalf("expected title updated")
	}

	*f.clock = f.clock.Add(time.Hour)
	if _, err := f.service.Resolve(ctx, admin, ticket.ID, "Replaced the router"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := f.service.Edit(ctx, creator, ticket.ID, EditInput{Title: &newTitle}); err == nil {
		t.Fatalf("expected edit after resolution to be rejected")
	} else if code := errCode(t, err); code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %s", code)
	}
}

func TestSubmitFeedbackOnce(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	admin := f.adminActor(nil)
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Toner empty", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := f.service.SubmitFeedback(ctx, creator, ticket.ID, 5, "Fast fix"); err == nil {
		t.Fatalf("expected feedback before resolution to fail")
	}

	*f.clock = f.clock.Add(time.Hour)
	if _, err := f.service.Resolve(ctx, admin, ticket.ID, "Replaced toner cartridge"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if _, err := f.service.SubmitFeedback(ctx, admin, ticket.ID, 5, "Fast fix"); err == nil {
		t.Fatalf("expected feedback by non-creator to be forbidden")
	}
	if _, err := f.service.SubmitFeedback(ctx, creator, ticket.ID, 6, ""); err == nil {
		t.Fatalf("expected out-of-range rating to fail")
	}

	updated, err := f.service.SubmitFeedback(ctx, creator, ticket.ID, 5, "Fast fix")
	if err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if updated.Feedback == nil || updated.Feedback.Rating != 5 || updated.Feedback.Comment != "Fast fix" {
		t.Fatalf("expected feedback recorded")
	}

	if _, err := f.service.SubmitFeedback(ctx, creator, ticket.ID, 1, "changed my mind"); err == nil {
		t.Fatalf("expected second feedback to conflict")
	} else if code := errCode(t, err); code != "CONFLICT" {
		t.Fatalf("expected CONFLICT, got %s", code)
	}

	reloaded, err := f.service.Get(ctx, creator, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Feedback.Rating != 5 {
		t.Fatalf("expected first feedback retained, got rating %d", reloaded.Feedback.Rating)
	}
}

func TestGetEnforcesVisibility(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	stranger := f.userActor("eve@other.test")
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Toner empty", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.service.Get(ctx, stranger, ticket.ID); err == nil {
		t.Fatalf("expected stranger access to be forbidden")
	} else if code := errCode(t, err); code != "FORBIDDEN" {
		t.Fatalf("expected FORBIDDEN, got %s", code)
	}
	if _, err := f.service.Get(ctx, creator, "tkt-missing"); err == nil {
		t.Fatalf("expected missing ticket to be not found")
	} else if code := errCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", code)
	}
}

func TestGetByNumber(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	ctx := context.Background()

	ticket, err := f.service.Create(ctx, creator, CreateInput{Title: "Toner empty", Description: strings.Repeat("d", 20)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := f.service.GetByNumber(ctx, creator, "t250115g001")
	if err != nil {
		t.Fatalf("get by number: %v", err)
	}
	if found.ID != ticket.ID {
		t.Fatalf("expected ticket %s, got %s", ticket.ID, found.ID)
	}
	if _, err := f.service.GetByNumber(ctx, creator, "T250115G999"); err == nil {
		t.Fatalf("expected unknown number to be not found")
	} else if code := errCode(t, err); code != "NOT_FOUND" {
		t.Fatalf("expected NOT_FOUND, got %s", code)
	}
}

func TestCreateNumbersStayOrderedWithinDay(t *testing.T) {
	f := newTicketFixture(t)
	creator := f.userActor("alice@acme.com")
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		ticket, err := f.service.Create(ctx, creator, CreateInput{
			Title:       fmt.Sprintf("Issue %d", i),
			Description: strings.Repeat("d", 20),
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		expected := fmt.Sprintf("T250115G%03d", i)
		if ticket.Number != expected {
			t.Fatalf("expected %s, got %s", expected, ticket.Number)
		}
	}
}
