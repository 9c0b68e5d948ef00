package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// DirectoryService is the superadmin surface for managing users and
// departments.
type DirectoryService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	bcryptCost  int
}

// NewDirectoryService constructs the service.
func NewDirectoryService(users repository.UserRepository, departments repository.DepartmentRepository, bcryptCost int) *DirectoryService {
	return &DirectoryService{users: users, departments: departments, bcryptCost: bcryptCost}
}

// CreateUserInput describes a superadmin-created account.
type CreateUserInput struct {
	Name         string
	Email        string
	CompanyName  string
	Password     string
	Role         domain.Role
	DepartmentID *string
}

// CreateUser provisions an account with an explicit role.
func (s *DirectoryService) CreateUser(ctx context.Context, actor *auth.Actor, input CreateUserInput) (*domain.User, error) {
	if !actor.CanManageDirectory() {
		return nil, apperrors.NewForbidden("superadmin role required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || email == "" || len(input.Password) < 8 {
		return nil, apperrors.NewValidationError("name, email and a password of at least 8 characters are required", nil)
	}
	if !input.Role.IsValid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("department", map[string]any{"department_id": *input.DepartmentID})
			}
			return nil, apperrors.MapError(err)
		}
	}
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	user := &domain.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		CompanyName:  strings.TrimSpace(input.CompanyName),
		PasswordHash: hash,
		Role:         input.Role,
		DepartmentID: input.DepartmentID,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers pages through accounts.
func (s *DirectoryService) ListUsers(ctx context.Context, actor *auth.Actor, limit, offset int) ([]domain.User, error) {
	if !actor.CanManageDirectory() {
		return nil, apperrors.NewForbidden("superadmin role required")
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// UserPatch updates role, status, or department of an account.
type UserPatch struct {
	Role         *domain.Role
	Status       *domain.UserStatus
	DepartmentID *string
}

// UpdateUser applies a patch to an account.
func (s *DirectoryService) UpdateUser(ctx context.Context, actor *auth.Actor, userID string, patch UserPatch) (*domain.User, error) {
	if !actor.CanManageDirectory() {
		return nil, apperrors.NewForbidden("superadmin role required")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	if patch.Role != nil {
		if !patch.Role.IsValid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": *patch.Role})
		}
		user.Role = *patch.Role
	}
	if patch.Status != nil {
		switch *patch.Status {
		case domain.UserStatusActive, domain.UserStatusSuspended, domain.UserStatusFrozen:
		default:
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *patch.Status})
		}
		user.Status = *patch.Status
	}
	if patch.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *patch.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("department", map[string]any{"department_id": *patch.DepartmentID})
			}
			return nil, apperrors.MapError(err)
		}
		user.DepartmentID = patch.DepartmentID
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// CreateDepartment provisions a triage unit.
func (s *DirectoryService) CreateDepartment(ctx context.Context, actor *auth.Actor, name string, categories []string) (*domain.Department, error) {
	if !actor.CanManageDirectory() {
		return nil, apperrors.NewForbidden("superadmin role required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	dept := &domain.Department{Name: name, Categories: categories}
	if err := s.departments.Create(ctx, dept); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewConflict("department name already exists", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments returns every department.
func (s *DirectoryService) ListDepartments(ctx context.Context) ([]domain.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return departments, nil
}
