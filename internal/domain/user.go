package domain

import (
	"errors"

	"github.com/google/uuid"
)

var ErrUserNotFound = errors.New("user not found")

// Role controls what a user can do in the app
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOperator  Role = "operator"
	RoleCollector Role = "collector"
	RoleCustomer  Role = "customer"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Phone        *string   `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
}

type UserRepository interface {
	GetByEmail(email string) (*User, error)
	GetByID(id uuid.UUID) (*User, error)
}
