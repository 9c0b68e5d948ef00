package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CompanyRepository persists per-domain analytics rollups. Rows are only
// ever upserted; stale domains are kept until excluded manually.
type CompanyRepository interface {
	Upsert(ctx context.Context, company *domain.Company) error
	GetByDomain(ctx context.Context, emailDomain string) (*domain.Company, error)
	List(ctx context.Context) ([]domain.Company, error)
}

type companyRepository struct {
	pool *pgxpool.Pool
}

// NewCompanyRepository builds the repository.
func NewCompanyRepository(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepository{pool: pool}
}

func (r *companyRepository) Upsert(ctx context.Context, company *domain.Company) error {
	const query = `
        INSERT INTO companies (domain, name, employee_count, total_tickets, resolved_tickets,
            pending_tickets, total_support_seconds, average_support_seconds, average_rating,
            total_feedbacks, refreshed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
        ON CONFLICT (domain) DO UPDATE SET
            name=EXCLUDED.name,
            employee_count=EXCLUDED.employee_count,
            total_tickets=EXCLUDED.total_tickets,
            resolved_tickets=EXCLUDED.resolved_tickets,
            pending_tickets=EXCLUDED.pending_tickets,
            total_support_seconds=EXCLUDED.total_support_seconds,
            average_support_seconds=EXCLUDED.average_support_seconds,
            average_rating=EXCLUDED.average_rating,
            total_feedbacks=EXCLUDED.total_feedbacks,
            refreshed_at=NOW()
        RETURNING refreshed_at`
	return r.pool.QueryRow(ctx, query,
		company.Domain,
		company.Name,
		company.EmployeeCount,
		company.TotalTickets,
		company.ResolvedTickets,
		company.PendingTickets,
		int64(company.TotalSupportTime/time.Second),
		int64(company.AverageSupportTime/time.Second),
		company.AverageRating,
		company.TotalFeedbacks,
	).Scan(&company.RefreshedAt)
}

func (r *companyRepository) GetByDomain(ctx context.Context, emailDomain string) (*domain.Company, error) {
	const query = companySelect + ` WHERE domain=$1`
	rows, err := r.pool.Query(ctx, query, emailDomain)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	companies, err := scanCompanies(rows)
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &companies[0], nil
}

func (r *companyRepository) List(ctx context.Context) ([]domain.Company, error) {
	rows, err := r.pool.Query(ctx, companySelect+` ORDER BY domain`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompanies(rows)
}

const companySelect = `
    SELECT domain, name, employee_count, total_tickets, resolved_tickets, pending_tickets,
           total_support_seconds, average_support_seconds, average_rating, total_feedbacks, refreshed_at
    FROM companies`

func scanCompanies(rows pgx.Rows) ([]domain.Company, error) {
	var result []domain.Company
	for rows.Next() {
		var (
			company      domain.Company
			totalSeconds int64
			avgSeconds   int64
		)
		if err := rows.Scan(
			&company.Domain,
			&company.Name,
			&company.EmployeeCount,
			&company.TotalTickets,
			&company.ResolvedTickets,
			&company.PendingTickets,
			&totalSeconds,
			&avgSeconds,
			&company.AverageRating,
			&company.TotalFeedbacks,
			&company.RefreshedAt,
		); err != nil {
			return nil, err
		}
		company.TotalSupportTime = time.Duration(totalSeconds) * time.Second
		company.AverageSupportTime = time.Duration(avgSeconds) * time.Second
		result = append(result, company)
	}
	return result, rows.Err()
}
