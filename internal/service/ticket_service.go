package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation, triage,
// resolution, and creator feedback. Every mutation is a single document
// update; validation failures leave no partial writes.
type TicketService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	numbers     *NumberGenerator
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
	Numbers        *NumberGenerator
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		numbers:     deps.Numbers,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		now:         time.Now,
	}
}

// CreateInput describes ticket creation payload.
type CreateInput struct {
	Type         domain.TicketType
	Title        string
	Description  string
	Category     string
	Reason       string
	Priority     domain.TicketPriority
	DepartmentID *string
	Attachments  []AttachmentInput
}

// AttachmentInput defines attachment metadata.
type AttachmentInput struct {
	FileName string
	URL      string
}

// UpdatePatch describes the admin-facing general update.
type UpdatePatch struct {
	Status   *domain.TicketStatus
	Priority *domain.TicketPriority
	Category *string
	Reason   *string
	Solution *string
}

// EditInput describes the creator-facing edit of mutable fields.
type EditInput struct {
	Title       *string
	Description *string
	Priority    *domain.TicketPriority
	Category    *string
	Reason      *string
	Attachments []AttachmentInput
}

// ListFilter describes listing parameters before visibility scoping.
type ListFilter struct {
	Type        *domain.TicketType
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// Create files a new ticket for the actor. The ticket number is reserved
// atomically per (day, department) partition; creation retries once should
// the unique index on number still report a collision.
func (s *TicketService) Create(ctx context.Context, actor *auth.Actor, input CreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if len(title) < 3 || len(title) > 200 {
		return nil, apperrors.NewValidationError("title must be 3-200 characters", nil)
	}
	if len(description) < 10 || len(description) > 2000 {
		return nil, apperrors.NewValidationError("description must be 10-2000 characters", nil)
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !input.Priority.IsValid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}
	if input.Type == "" {
		input.Type = domain.TicketTypeTicket
	}
	if input.Type != domain.TicketTypeTicket && input.Type != domain.TicketTypeToken {
		return nil, apperrors.NewValidationError("invalid type", map[string]any{"type": input.Type})
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("department", map[string]any{"department_id": *input.DepartmentID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	ticket := &domain.Ticket{
		CreatedAt:    s.now(),
		Type:         input.Type,
		Title:        title,
		Description:  description,
		Category:     strings.TrimSpace(input.Category),
		Reason:       strings.TrimSpace(input.Reason),
		Priority:     input.Priority,
		Status:       domain.TicketStatusPending,
		CreatedBy:    actor.ID,
		DepartmentID: input.DepartmentID,
	}
	for _, att := range input.Attachments {
		ticket.Attachments = append(ticket.Attachments, domain.Attachment{
			FileName:   att.FileName,
			URL:        att.URL,
			UploaderID: actor.ID,
			At:         s.now(),
		})
	}

	// One retry: the atomic reservation makes number collisions all but
	// impossible, but the unique index remains the final arbiter.
	for attempt := 0; attempt < 2; attempt++ {
		number, err := s.numbers.Generate(ctx, input.DepartmentID)
		if err != nil {
			return nil, err
		}
		ticket.Number = number
		err = s.tickets.Create(ctx, ticket)
		if err == nil {
			break
		}
		if isUniqueViolation(err) && attempt == 0 {
			continue
		}
		return nil, apperrors.MapError(err)
	}

	if s.metrics != nil {
		s.metrics.TicketsCreated.Inc()
	}
	s.publish(ctx, actor, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Number:       ticket.Number,
			Title:        ticket.Title,
			Priority:     ticket.Priority,
			CreatorEmail: actor.Email,
			DepartmentID: ticket.DepartmentID,
		},
	})
	return ticket, nil
}

// List returns tickets the actor may see, newest first.
func (s *TicketService) List(ctx context.Context, actor *auth.Actor, filter ListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Type:        filter.Type,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, ListScope(actor, repoFilter))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// Get fetches one ticket, enforcing the single-ticket access rule.
func (s *TicketService) Get(ctx context.Context, actor *auth.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// GetByNumber fetches one ticket by its human-facing number, enforcing the
// same access rule as Get.
func (s *TicketService) GetByNumber(ctx context.Context, actor *auth.Actor, number string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"number": number})
		}
		return nil, apperrors.MapError(err)
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// Assign routes a ticket to a staff member, forcing status to assigned
// regardless of prior status.
func (s *TicketService) Assign(ctx context.Context, actor *auth.Actor, ticketID, assigneeID string, departmentID *string) (*domain.Ticket, error) {
	if !actor.CanTriage() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("assignee", map[string]any{"user_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Role.IsStaff() {
		return nil, apperrors.NewValidationError("assignee must be an admin or superadmin", map[string]any{"user_id": assigneeID})
	}
	if departmentID != nil {
		if _, err := s.departments.GetByID(ctx, *departmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("department", map[string]any{"department_id": *departmentID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.AssignedTo = &assignee.ID
	if departmentID != nil {
		ticket.DepartmentID = departmentID
	}
	ticket.Status = domain.TicketStatusAssigned
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Payload: events.TicketAssignedPayload{
			Number:       ticket.Number,
			AssignedTo:   assignee.ID,
			DepartmentID: ticket.DepartmentID,
		},
	})
	return ticket, nil
}

// Update applies the admin-facing general patch. Status changes go through
// the single transition rule; a target of resolved/closed demands solution
// text and a not-yet-resolved ticket.
func (s *TicketService) Update(ctx context.Context, actor *auth.Actor, ticketID string, patch UpdatePatch) (*domain.Ticket, error) {
	if !actor.CanTriage() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	if patch.Priority != nil {
		if !patch.Priority.IsValid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *patch.Priority})
		}
		ticket.Priority = *patch.Priority
	}
	if patch.Category != nil {
		ticket.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Reason != nil {
		ticket.Reason = strings.TrimSpace(*patch.Reason)
	}

	resolved := false
	if patch.Status != nil && *patch.Status != ticket.Status {
		next := *patch.Status
		if !next.IsValid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": next})
		}
		if err := validateTransition(ticket.Status, next); err != nil {
			return nil, err
		}
		if next.IsTerminal() {
			solution := ""
			if patch.Solution != nil {
				solution = strings.TrimSpace(*patch.Solution)
			}
			if err := s.applyResolution(ticket, actor, solution); err != nil {
				return nil, err
			}
			resolved = true
		}
		ticket.Status = next
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if resolved {
		s.emitResolved(ctx, actor, ticket)
	}
	return ticket, nil
}

// Resolve is the dedicated solve operation: one-shot resolution with a
// mandatory solution text.
func (s *TicketService) Resolve(ctx context.Context, actor *auth.Actor, ticketID, solution string) (*domain.Ticket, error) {
	if !actor.CanTriage() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	if err := validateTransition(ticket.Status, domain.TicketStatusResolved); err != nil {
		return nil, err
	}
	if err := s.applyResolution(ticket, actor, strings.TrimSpace(solution)); err != nil {
		return nil, err
	}
	ticket.Status = domain.TicketStatusResolved
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.emitResolved(ctx, actor, ticket)
	return ticket, nil
}

// AddRemark appends an admin note.
func (s *TicketService) AddRemark(ctx context.Context, actor *auth.Actor, ticketID, text string) (*domain.Ticket, error) {
	if !actor.CanTriage() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	text = strings.TrimSpace(text)
	if len(text) < 1 || len(text) > 1000 {
		return nil, apperrors.NewValidationError("remark must be 1-1000 characters", nil)
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	ticket.Remarks = append(ticket.Remarks, domain.Remark{
		Text:     text,
		AuthorID: actor.ID,
		At:       s.now(),
	})
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// AddAdminAttachment appends an admin-originated attachment.
func (s *TicketService) AddAdminAttachment(ctx context.Context, actor *auth.Actor, ticketID string, input AttachmentInput) (*domain.Ticket, error) {
	if !actor.CanTriage() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	if strings.TrimSpace(input.FileName) == "" || strings.TrimSpace(input.URL) == "" {
		return nil, apperrors.NewValidationError("file_name and url required", nil)
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !CanView(actor, ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	ticket.AdminAttachments = append(ticket.AdminAttachments, domain.Attachment{
		FileName:   input.FileName,
		URL:        input.URL,
		UploaderID: actor.ID,
		At:         s.now(),
	})
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// Edit lets the creator revise mutable fields while the ticket is still
// open. Edits after resolution are rejected.
func (s *TicketService) Edit(ctx context.Context, actor *auth.Actor, ticketID string, input EditInput) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatedBy != actor.ID {
		return nil, apperrors.NewForbidden("only the creator may edit a ticket")
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is already resolved", map[string]any{"status": ticket.Status})
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if len(title) < 3 || len(title) > 200 {
			return nil, apperrors.NewValidationError("title must be 3-200 characters", nil)
		}
		ticket.Title = title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if len(description) < 10 || len(description) > 2000 {
			return nil, apperrors.NewValidationError("description must be 10-2000 characters", nil)
		}
		ticket.Description = description
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}
	if input.Category != nil {
		ticket.Category = strings.TrimSpace(*input.Category)
	}
	if input.Reason != nil {
		ticket.Reason = strings.TrimSpace(*input.Reason)
	}
	for _, att := range input.Attachments {
		ticket.Attachments = append(ticket.Attachments, domain.Attachment{
			FileName:   att.FileName,
			URL:        att.URL,
			UploaderID: actor.ID,
			At:         s.now(),
		})
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// SubmitFeedback records the creator's one-shot rating after the ticket
// reaches a terminal status.
func (s *TicketService) SubmitFeedback(ctx context.Context, actor *auth.Actor, ticketID string, rating int, comment string) (*domain.Ticket, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	comment = strings.TrimSpace(comment)
	if len(comment) > 500 {
		return nil, apperrors.NewValidationError("comment must be at most 500 characters", nil)
	}
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatedBy != actor.ID {
		return nil, apperrors.NewForbidden("only the creator may submit feedback")
	}
	if !ticket.Status.IsTerminal() {
		return nil, apperrors.NewValidationError("feedback requires a resolved or closed ticket", map[string]any{"status": ticket.Status})
	}
	if ticket.Feedback != nil {
		return nil, apperrors.NewConflict("feedback already submitted", nil)
	}

	ticket.Feedback = &domain.Feedback{
		Rating:      rating,
		Comment:     comment,
		SubmittedAt: s.now(),
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, actor, events.Event{
		Type:     events.EventFeedbackSubmitted,
		TicketID: ticket.ID,
		Payload: events.FeedbackSubmittedPayload{
			Number: ticket.Number,
			Rating: rating,
		},
	})
	return ticket, nil
}

func (s *TicketService) getTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// applyResolution sets the one-shot resolution fields. Resolving twice is a
// conflict; timestamps are never recomputed once written.
func (s *TicketService) applyResolution(ticket *domain.Ticket, actor *auth.Actor, solution string) error {
	if ticket.SolvedAt != nil {
		return apperrors.NewConflict("ticket already resolved", map[string]any{"solved_at": *ticket.SolvedAt})
	}
	if len(solution) < 10 {
		return apperrors.NewValidationError("solution must be at least 10 characters", nil)
	}
	now := s.now()
	solverID := actor.ID
	ticket.SolvedBy = &solverID
	ticket.SolvedAt = &now
	ticket.Solution = &solution
	ticket.TimeToSolve = now.Sub(ticket.CreatedAt)
	return nil
}

func (s *TicketService) emitResolved(ctx context.Context, actor *auth.Actor, ticket *domain.Ticket) {
	if s.metrics != nil {
		s.metrics.TicketsResolved.Inc()
	}
	creatorEmail := ""
	if creator, err := s.users.GetByID(ctx, ticket.CreatedBy); err == nil {
		creatorEmail = creator.Email
	}
	s.publish(ctx, actor, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: ticket.ID,
		Payload: events.TicketResolvedPayload{
			Number:       ticket.Number,
			Title:        ticket.Title,
			CreatorEmail: creatorEmail,
			SolvedBy:     actor.ID,
			TimeToSolve:  ticket.TimeToSolve,
		},
	})
}

func (s *TicketService) publish(ctx context.Context, actor *auth.Actor, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	event.Actor = events.Actor{ID: actor.ID, Role: actor.Role}
	_ = s.dispatcher.Publish(ctx, event)
}

// statusRank orders the lifecycle; transitions may move forward or stay
// lateral, never backward, and nothing leaves closed.
var statusRank = map[domain.TicketStatus]int{
	domain.TicketStatusPending:    0,
	domain.TicketStatusAssigned:   1,
	domain.TicketStatusInProgress: 2,
	domain.TicketStatusResolved:   3,
	domain.TicketStatusClosed:     4,
}

func validateTransition(current, next domain.TicketStatus) error {
	if current == domain.TicketStatusClosed {
		return apperrors.NewConflict("ticket is closed", nil)
	}
	if statusRank[next] < statusRank[current] {
		return apperrors.NewValidationError("status cannot move backward", map[string]any{
			"from": current,
			"to":   next,
		})
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
