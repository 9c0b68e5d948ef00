package domain

import "time"

// Company holds cached per-email-domain rollups. It is a projection of
// User and Ticket data, stale between ticket mutations and the next
// analytics refresh.
type Company struct {
	Domain             string
	Name               string
	EmployeeCount      int
	TotalTickets       int
	ResolvedTickets    int
	PendingTickets     int
	TotalSupportTime   time.Duration
	AverageSupportTime time.Duration
	AverageRating      float64
	TotalFeedbacks     int
	RefreshedAt        time.Time
}
