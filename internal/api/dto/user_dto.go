package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Password    string `json:"password"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse payload.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// CreateUserRequest is the superadmin account-provisioning payload.
type CreateUserRequest struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	CompanyName  string      `json:"company_name"`
	Password     string      `json:"password"`
	Role         domain.Role `json:"role"`
	DepartmentID *string     `json:"department_id"`
}

// UpdateUserRequest patches role, status, or department.
type UpdateUserRequest struct {
	Role         *domain.Role       `json:"role"`
	Status       *domain.UserStatus `json:"status"`
	DepartmentID *string            `json:"department_id"`
}

// UserResponse is the account shape; the password hash never leaves the
// service.
type UserResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email"`
	CompanyName  string            `json:"company_name,omitempty"`
	Role         domain.Role       `json:"role"`
	DepartmentID *string           `json:"department_id,omitempty"`
	Status       domain.UserStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		CompanyName:  u.CompanyName,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
	}
}

// CreateDepartmentRequest payload.
type CreateDepartmentRequest struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// DepartmentResponse shape.
type DepartmentResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
}

// NewDepartmentResponse maps a domain department.
func NewDepartmentResponse(d *domain.Department) DepartmentResponse {
	return DepartmentResponse{ID: d.ID, Name: d.Name, Categories: d.Categories}
}
