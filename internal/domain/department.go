package domain

import "time"

// Department represents a triage unit; its name's first letter feeds
// the ticket number department code.
type Department struct {
	ID         string
	Name       string
	Categories []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
