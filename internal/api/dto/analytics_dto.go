package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CompanyResponse is the rollup shape; durations are reported in seconds.
type CompanyResponse struct {
	Domain            string    `json:"domain"`
	Name              string    `json:"name"`
	EmployeeCount     int       `json:"employee_count"`
	TotalTickets      int       `json:"total_tickets"`
	ResolvedTickets   int       `json:"resolved_tickets"`
	PendingTickets    int       `json:"pending_tickets"`
	TotalSupportSec   int64     `json:"total_support_seconds"`
	AverageSupportSec int64     `json:"average_support_seconds"`
	AverageRating     float64   `json:"average_rating"`
	TotalFeedbacks    int       `json:"total_feedbacks"`
	RefreshedAt       time.Time `json:"refreshed_at"`
}

// NewCompanyResponse maps a domain company.
func NewCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		Domain:            c.Domain,
		Name:              c.Name,
		EmployeeCount:     c.EmployeeCount,
		TotalTickets:      c.TotalTickets,
		ResolvedTickets:   c.ResolvedTickets,
		PendingTickets:    c.PendingTickets,
		TotalSupportSec:   int64(c.TotalSupportTime.Seconds()),
		AverageSupportSec: int64(c.AverageSupportTime.Seconds()),
		AverageRating:     c.AverageRating,
		TotalFeedbacks:    c.TotalFeedbacks,
		RefreshedAt:       c.RefreshedAt,
	}
}
