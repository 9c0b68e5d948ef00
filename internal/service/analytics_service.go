package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AnalyticsService recomputes per-company rollups from scratch. Companies
// are keyed by email domain; the rollup is a cache and readers tolerate
// staleness between refreshes. Domains that lose all their users keep their
// last rollup.
type AnalyticsService struct {
	tickets   repository.TicketRepository
	users     repository.UserRepository
	companies repository.CompanyRepository
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(tickets repository.TicketRepository, users repository.UserRepository, companies repository.CompanyRepository, metrics *observability.Metrics) *AnalyticsService {
	return &AnalyticsService{
		tickets:   tickets,
		users:     users,
		companies: companies,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Refresh partitions non-superadmin users by email domain, aggregates each
// partition's tickets, and upserts one company per domain. Averages over
// zero qualifying tickets are 0.
func (s *AnalyticsService) Refresh(ctx context.Context) ([]domain.Company, error) {
	start := s.now()

	allUsers, err := s.users.ListByRoles(ctx, domain.RoleUser, domain.RoleAdmin)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	byDomain := make(map[string][]domain.User)
	for _, user := range allUsers {
		emailDomain := user.EmailDomain()
		if emailDomain == "" {
			continue
		}
		byDomain[emailDomain] = append(byDomain[emailDomain], user)
	}

	domains := make([]string, 0, len(byDomain))
	for emailDomain := range byDomain {
		domains = append(domains, emailDomain)
	}
	sort.Strings(domains)

	result := make([]domain.Company, 0, len(domains))
	for _, emailDomain := range domains {
		members := byDomain[emailDomain]
		company, err := s.aggregateDomain(ctx, emailDomain, members)
		if err != nil {
			return nil, err
		}
		if err := s.companies.Upsert(ctx, company); err != nil {
			return nil, apperrors.MapError(err)
		}
		result = append(result, *company)
	}

	if s.metrics != nil {
		s.metrics.AnalyticsDuration.Observe(s.now().Sub(start).Seconds())
	}
	return result, nil
}

// List returns the current (possibly stale) rollups.
func (s *AnalyticsService) List(ctx context.Context) ([]domain.Company, error) {
	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return companies, nil
}

// Get returns a single rollup by email domain.
func (s *AnalyticsService) Get(ctx context.Context, emailDomain string) (*domain.Company, error) {
	company, err := s.companies.GetByDomain(ctx, strings.ToLower(strings.TrimSpace(emailDomain)))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return company, nil
}

func (s *AnalyticsService) aggregateDomain(ctx context.Context, emailDomain string, members []domain.User) (*domain.Company, error) {
	creatorIDs := make([]string, len(members))
	for i, member := range members {
		creatorIDs[i] = member.ID
	}
	tickets, err := s.tickets.ListByCreators(ctx, creatorIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	company := &domain.Company{
		Domain:        emailDomain,
		Name:          companyDisplayName(emailDomain, members),
		EmployeeCount: len(members),
		TotalTickets:  len(tickets),
	}

	var (
		solvedCount  int
		ratingSum    int
		totalSupport time.Duration
	)
	for _, ticket := range tickets {
		switch ticket.Status {
		case domain.TicketStatusResolved:
			company.ResolvedTickets++
		case domain.TicketStatusPending:
			company.PendingTickets++
		}
		if ticket.TimeToSolve > 0 {
			totalSupport += ticket.TimeToSolve
			solvedCount++
		}
		if ticket.Feedback != nil {
			ratingSum += ticket.Feedback.Rating
			company.TotalFeedbacks++
		}
	}

	company.TotalSupportTime = totalSupport
	if solvedCount > 0 {
		company.AverageSupportTime = totalSupport / time.Duration(solvedCount)
	}
	if company.TotalFeedbacks > 0 {
		company.AverageRating = float64(ratingSum) / float64(company.TotalFeedbacks)
	}
	return company, nil
}

// companyDisplayName prefers the first member's stored company name, then
// upper-cases the domain's leading label.
func companyDisplayName(emailDomain string, members []domain.User) string {
	for _, member := range members {
		if name := strings.TrimSpace(member.CompanyName); name != "" {
			return name
		}
	}
	label, _, _ := strings.Cut(emailDomain, ".")
	return strings.ToUpper(label)
}
