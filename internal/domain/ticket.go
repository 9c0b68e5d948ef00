package domain

import "time"

// TicketType distinguishes tickets from tokens; both share one shape.
type TicketType string

const (
	TicketTypeTicket TicketType = "TICKET"
	TicketTypeToken  TicketType = "TOKEN"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "PENDING"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// IsTerminal reports whether the status ends the support lifecycle;
// feedback becomes eligible once a ticket reaches a terminal status.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// IsValid reports enum membership.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusPending, TicketStatusAssigned, TicketStatusInProgress,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// IsValid reports enum membership.
func (p TicketPriority) IsValid() bool {
	return p == TicketPriorityLow || p == TicketPriorityMedium || p == TicketPriorityHigh
}

// Remark is an append-only admin note on a ticket.
type Remark struct {
	Text     string    `json:"text"`
	AuthorID string    `json:"author_id"`
	At       time.Time `json:"at"`
}

// Attachment stores uploaded file metadata.
type Attachment struct {
	FileName   string    `json:"file_name"`
	URL        string    `json:"url"`
	UploaderID string    `json:"uploader_id"`
	At         time.Time `json:"at"`
}

// Feedback is the creator's one-shot rating after resolution.
type Feedback struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Ticket is the aggregate for support requests and tokens.
type Ticket struct {
	ID               string
	Number           string
	Type             TicketType
	Title            string
	Description      string
	Category         string
	Reason           string
	Priority         TicketPriority
	Status           TicketStatus
	CreatedBy        string
	AssignedTo       *string
	DepartmentID     *string
	Remarks          []Remark
	Attachments      []Attachment
	AdminAttachments []Attachment
	SolvedBy         *string
	SolvedAt         *time.Time
	Solution         *string
	TimeToSolve      time.Duration
	Feedback         *Feedback
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
