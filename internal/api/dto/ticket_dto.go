package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Type         domain.TicketType     `json:"type"`
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	Category     string                `json:"category"`
	Reason       string                `json:"reason"`
	Priority     domain.TicketPriority `json:"priority"`
	DepartmentID *string               `json:"department_id"`
	Attachments  []AttachmentRequest   `json:"attachments"`
}

// AttachmentRequest payload.
type AttachmentRequest struct {
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}

// EditTicketRequest payload for creator edits.
type EditTicketRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Priority    *domain.TicketPriority `json:"priority"`
	Category    *string                `json:"category"`
	Reason      *string                `json:"reason"`
	Attachments []AttachmentRequest    `json:"attachments"`
}

// UpdateTicketRequest payload for the admin general update.
type UpdateTicketRequest struct {
	Status   *domain.TicketStatus   `json:"status"`
	Priority *domain.TicketPriority `json:"priority"`
	Category *string                `json:"category"`
	Reason   *string                `json:"reason"`
	Solution *string                `json:"solution"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeID   string  `json:"assignee_id"`
	DepartmentID *string `json:"department_id"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	Solution string `json:"solution"`
}

// RemarkRequest payload.
type RemarkRequest struct {
	Text string `json:"text"`
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// TicketSummary is the list-view shape.
type TicketSummary struct {
	ID           string                `json:"id"`
	Number       string                `json:"number"`
	Type         domain.TicketType     `json:"type"`
	Title        string                `json:"title"`
	Priority     domain.TicketPriority `json:"priority"`
	Status       domain.TicketStatus   `json:"status"`
	DepartmentID *string               `json:"department_id,omitempty"`
	AssignedTo   *string               `json:"assigned_to,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetail is the single-ticket shape.
type TicketDetail struct {
	TicketSummary
	Description      string              `json:"description"`
	Category         string              `json:"category,omitempty"`
	Reason           string              `json:"reason,omitempty"`
	CreatedBy        string              `json:"created_by"`
	Remarks          []domain.Remark     `json:"remarks"`
	Attachments      []domain.Attachment `json:"attachments"`
	AdminAttachments []domain.Attachment `json:"admin_attachments"`
	SolvedBy         *string             `json:"solved_by,omitempty"`
	SolvedAt         *time.Time          `json:"solved_at,omitempty"`
	Solution         *string             `json:"solution,omitempty"`
	TimeToSolveSec   int64               `json:"time_to_solve_seconds"`
	Feedback         *domain.Feedback    `json:"feedback,omitempty"`
}

// NewTicketSummary maps a domain ticket to its list shape.
func NewTicketSummary(t *domain.Ticket) TicketSummary {
	return TicketSummary{
		ID:           t.ID,
		Number:       t.Number,
		Type:         t.Type,
		Title:        t.Title,
		Priority:     t.Priority,
		Status:       t.Status,
		DepartmentID: t.DepartmentID,
		AssignedTo:   t.AssignedTo,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

// NewTicketDetail maps a domain ticket to its detail shape.
func NewTicketDetail(t *domain.Ticket) TicketDetail {
	return TicketDetail{
		TicketSummary:    NewTicketSummary(t),
		Description:      t.Description,
		Category:         t.Category,
		Reason:           t.Reason,
		CreatedBy:        t.CreatedBy,
		Remarks:          t.Remarks,
		Attachments:      t.Attachments,
		AdminAttachments: t.AdminAttachments,
		SolvedBy:         t.SolvedBy,
		SolvedAt:         t.SolvedAt,
		Solution:         t.Solution,
		TimeToSolveSec:   int64(t.TimeToSolve.Seconds()),
		Feedback:         t.Feedback,
	}
}
