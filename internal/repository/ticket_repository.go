package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters. Visibility scoping fills the
// CreatedBy / DepartmentID fields; handlers fill the rest.
type TicketFilter struct {
	CreatedBy    *string
	DepartmentID *string
	AssignedTo   *string
	Type         *domain.TicketType
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListByCreators(ctx context.Context, creatorIDs []string) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, number, type, title, description, category, reason, priority, status,
        created_by, assigned_to, department_id, remarks, attachments, admin_attachments,
        solved_by, solved_at, solution, time_to_solve_seconds, feedback, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	remarks, attachments, adminAttachments, feedback, err := marshalTicketDocs(ticket)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (number, type, title, description, category, reason, priority, status,
            created_by, assigned_to, department_id, remarks, attachments, admin_attachments,
            solved_by, solved_at, solution, time_to_solve_seconds, feedback)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Number,
		ticket.Type,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Reason,
		ticket.Priority,
		ticket.Status,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.DepartmentID,
		remarks,
		attachments,
		adminAttachments,
		ticket.SolvedBy,
		ticket.SolvedAt,
		ticket.Solution,
		int64(ticket.TimeToSolve/time.Second),
		feedback,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	remarks, attachments, adminAttachments, feedback, err := marshalTicketDocs(ticket)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, reason=$4, priority=$5, status=$6,
            assigned_to=$7, department_id=$8, remarks=$9, attachments=$10, admin_attachments=$11,
            solved_by=$12, solved_at=$13, solution=$14, time_to_solve_seconds=$15, feedback=$16,
            updated_at=NOW()
        WHERE id=$17`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Reason,
		ticket.Priority,
		ticket.Status,
		ticket.AssignedTo,
		ticket.DepartmentID,
		remarks,
		attachments,
		adminAttachments,
		ticket.SolvedBy,
		ticket.SolvedAt,
		ticket.Solution,
		int64(ticket.TimeToSolve/time.Second),
		feedback,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE number=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, number)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &tickets[0], nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(number) LIKE %s)", placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListByCreators(ctx context.Context, creatorIDs []string) ([]domain.Ticket, error) {
	if len(creatorIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE created_by = ANY($1) ORDER BY created_at`, ticketColumns)
	rows, err := r.pool.Query(ctx, query, creatorIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func marshalTicketDocs(ticket *domain.Ticket) (remarks, attachments, adminAttachments, feedback []byte, err error) {
	if remarks, err = json.Marshal(emptyIfNil(ticket.Remarks)); err != nil {
		return
	}
	if attachments, err = json.Marshal(emptyIfNil(ticket.Attachments)); err != nil {
		return
	}
	if adminAttachments, err = json.Marshal(emptyIfNil(ticket.AdminAttachments)); err != nil {
		return
	}
	if ticket.Feedback != nil {
		feedback, err = json.Marshal(ticket.Feedback)
	}
	return
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var (
			ticket           domain.Ticket
			remarks          []byte
			attachments      []byte
			adminAttachments []byte
			feedback         []byte
			solveSeconds     int64
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Number,
			&ticket.Type,
			&ticket.Title,
			&ticket.Description,
			&ticket.Category,
			&ticket.Reason,
			&ticket.Priority,
			&ticket.Status,
			&ticket.CreatedBy,
			&ticket.AssignedTo,
			&ticket.DepartmentID,
			&remarks,
			&attachments,
			&adminAttachments,
			&ticket.SolvedBy,
			&ticket.SolvedAt,
			&ticket.Solution,
			&solveSeconds,
			&feedback,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ticket.TimeToSolve = time.Duration(solveSeconds) * time.Second
		if err := json.Unmarshal(remarks, &ticket.Remarks); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(attachments, &ticket.Attachments); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(adminAttachments, &ticket.AdminAttachments); err != nil {
			return nil, err
		}
		if len(feedback) > 0 {
			var fb domain.Feedback
			if err := json.Unmarshal(feedback, &fb); err != nil {
				return nil, err
			}
			ticket.Feedback = &fb
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
