package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type memTicketRepo struct {
	mu      sync.Mutex
	nextID  int
	tickets map[string]domain.Ticket
	numbers map[string]bool
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{
		tickets: make(map[string]domain.Ticket),
		numbers: make(map[string]bool),
	}
}

func (r *memTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.numbers[ticket.Number] {
		return fmt.Errorf("duplicate number %s", ticket.Number)
	}
	r.nextID++
	ticket.ID = fmt.Sprintf("tkt-%d", r.nextID)
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	r.numbers[ticket.Number] = true
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *memTicketRepo) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.Number == number {
			return &ticket, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.DepartmentID != nil {
			if ticket.DepartmentID == nil || *ticket.DepartmentID != *filter.DepartmentID {
				continue
			}
		}
		if filter.Type != nil && ticket.Type != *filter.Type {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (r *memTicketRepo) ListByCreators(ctx context.Context, creatorIDs []string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]bool, len(creatorIDs))
	for _, id := range creatorIDs {
		set[id] = true
	}
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if set[ticket.CreatedBy] {
			result = append(result, ticket)
		}
	}
	return result, nil
}

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type memUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[string]domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]domain.User)}
}

func (r *memUserRepo) add(user domain.User) domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		r.nextID++
		user.ID = fmt.Sprintf("usr-%d", r.nextID)
	}
	r.users[user.ID] = user
	return user
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	*user = r.add(*user)
	return nil
}

func (r *memUserRepo) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		result = append(result, user)
	}
	return result, nil
}

func (r *memUserRepo) ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		for _, role := range roles {
			if user.Role == role {
				result = append(result, user)
				break
			}
		}
	}
	return result, nil
}

func (r *memUserRepo) ListAdminsByDepartment(ctx context.Context, departmentID string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		if user.Role == domain.RoleAdmin && user.DepartmentID != nil && *user.DepartmentID == departmentID {
			result = append(result, user)
		}
	}
	return result, nil
}

type memDepartmentRepo struct {
	mu          sync.Mutex
	nextID      int
	departments map[string]domain.Department
}

func newMemDepartmentRepo() *memDepartmentRepo {
	return &memDepartmentRepo{departments: make(map[string]domain.Department)}
}

func (r *memDepartmentRepo) add(dept domain.Department) domain.Department {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dept.ID == "" {
		r.nextID++
		dept.ID = fmt.Sprintf("dep-%d", r.nextID)
	}
	r.departments[dept.ID] = dept
	return dept
}

func (r *memDepartmentRepo) Create(ctx context.Context, dept *domain.Department) error {
	*dept = r.add(*dept)
	return nil
}

func (r *memDepartmentRepo) Update(ctx context.Context, dept *domain.Department) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.departments[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.departments[dept.ID] = *dept
	return nil
}

func (r *memDepartmentRepo) GetByID(ctx context.Context, id string) (*domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dept, ok := r.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &dept, nil
}

func (r *memDepartmentRepo) List(ctx context.Context) ([]domain.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Department
	for _, dept := range r.departments {
		result = append(result, dept)
	}
	return result, nil
}

type memCompanyRepo struct {
	mu        sync.Mutex
	companies map[string]domain.Company
}

func newMemCompanyRepo() *memCompanyRepo {
	return &memCompanyRepo{companies: make(map[string]domain.Company)}
}

func (r *memCompanyRepo) Upsert(ctx context.Context, company *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	company.RefreshedAt = time.Now()
	r.companies[company.Domain] = *company
	return nil
}

func (r *memCompanyRepo) GetByDomain(ctx context.Context, emailDomain string) (*domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	company, ok := r.companies[emailDomain]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &company, nil
}

func (r *memCompanyRepo) List(ctx context.Context) ([]domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Company
	for _, company := range r.companies {
		result = append(result, company)
	}
	return result, nil
}

type memSequenceReserver struct {
	mu     sync.Mutex
	values map[string]int64
}

func newMemSequenceReserver() *memSequenceReserver {
	return &memSequenceReserver{values: make(map[string]int64)}
}

func (r *memSequenceReserver) Reserve(ctx context.Context, day time.Time, departmentCode string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := day.UTC().Format("20060102") + ":" + departmentCode
	r.values[key]++
	return r.values[key], nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []events.Event
	for _, event := range d.events {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}
