package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventTicketAssigned    EventType = "ticket_assigned"
	EventTicketResolved    EventType = "ticket_resolved"
	EventFeedbackSubmitted EventType = "feedback_submitted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services. Delivery is
// fire-and-forget: the emitting state transition never depends on the
// outcome of a handler.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketCreatedPayload carries enough data to notify department admins.
type TicketCreatedPayload struct {
	Number       string                `json:"number"`
	Title        string                `json:"title"`
	Priority     domain.TicketPriority `json:"priority"`
	CreatorEmail string                `json:"creator_email"`
	DepartmentID *string               `json:"department_id,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Number       string  `json:"number"`
	AssignedTo   string  `json:"assigned_to"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// TicketResolvedPayload carries enough data to notify the creator.
type TicketResolvedPayload struct {
	Number       string        `json:"number"`
	Title        string        `json:"title"`
	CreatorEmail string        `json:"creator_email"`
	SolvedBy     string        `json:"solved_by"`
	TimeToSolve  time.Duration `json:"time_to_solve"`
}

// FeedbackSubmittedPayload payload.
type FeedbackSubmittedPayload struct {
	Number string `json:"number"`
	Rating int    `json:"rating"`
}
