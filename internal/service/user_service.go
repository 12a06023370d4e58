package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"blog-server/internal/domain"
	"blog-server/internal/dto"
	"blog-server/internal/repository"
)

const minPasswordLength = 8

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidInput wraps every registration validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidRegistrationPassword indicates the registration secret is missing or incorrect.
	ErrInvalidRegistrationPassword = errors.New("invalid registration password")
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, password, role, providedSecret string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (dto.User, bool, error)
}

type userService struct {
	users          repository.UserRepository
	registerSecret string
	hashCost       int
}

func NewUserService(users repository.UserRepository, registerSecret string) UserService {
	return &userService{
		users:          users,
		registerSecret: strings.TrimSpace(registerSecret),
		hashCost:       bcrypt.DefaultCost,
	}
}

// Register creates an account. Every registration, whatever the role, must
// present the configured registration secret.
func (s *userService) Register(ctx context.Context, username, password, role, providedSecret string) (*domain.User, error) {
	if s.registerSecret == "" {
		return nil, fmt.Errorf("%w: registration secret is not configured", ErrInvalidRegistrationPassword)
	}
	providedSecret = strings.TrimSpace(providedSecret)
	if subtle.ConstantTimeCompare([]byte(providedSecret), []byte(s.registerSecret)) != 1 {
		return nil, ErrInvalidRegistrationPassword
	}

	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	role = strings.TrimSpace(role)

	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	if role == "" {
		role = string(domain.RoleUser)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.Role(role),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, found, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

// GetByID returns the transfer record for id. The password field carries the
// stored hash; callers decide whether it crosses their boundary.
func (s *userService) GetByID(ctx context.Context, id int64) (dto.User, bool, error) {
	user, found, err := s.users.FindByID(ctx, id)
	if err != nil {
		return dto.User{}, false, err
	}
	if !found {
		return dto.User{}, false, nil
	}
	return dto.FromDomain(user), true, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
