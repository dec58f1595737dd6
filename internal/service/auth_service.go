package service

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quincena/quincena-backend/internal/auth"
	"github.com/quincena/quincena-backend/internal/domain"
)

// AuthService handles login and token issuance
type AuthService struct {
	userRepo  domain.UserRepository
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, jwtSecret []byte, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Login checks credentials and returns a signed token plus the user.
// Unknown email and wrong password collapse into the same error so the
// response does not leak which one failed.
func (s *AuthService) Login(email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := auth.NewToken(user.ID.String(), string(user.Role), s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// GetUser returns the user behind a validated token subject
func (s *AuthService) GetUser(id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(id)
}

// ValidateToken parses a bearer token and returns the user ID and role
func (s *AuthService) ValidateToken(token string) (uuid.UUID, domain.Role, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return uuid.Nil, "", domain.ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", domain.ErrUnauthorized
	}
	return userID, domain.Role(claims.Role), nil
}

// HashPassword hashes a plaintext password for storage (used by seeding)
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
