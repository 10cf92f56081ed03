package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"bookstore-restful/auth"
	"bookstore-restful/models"
	"bookstore-restful/repositories"
)

const maxRoleLength = 20

// The UserService interface defines the methods that user services need to implement
type UserService interface {
	Register(ctx context.Context, input *RegisterInput) (*models.User, error)
	Login(ctx context.Context, input *LoginInput) (*LoginResult, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateRole(ctx context.Context, userID uint, role string) (*models.User, error)
}

// --- Structs for Input/Output ---
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// The userService structure is the implementation of the UserService interface
type userService struct {
	repo       repositories.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger

	// Compared against when the email is unknown, so both failure paths
	// cost one bcrypt comparison.
	dummyHash string
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(repo repositories.UserRepository, tokens *auth.TokenManager, bcryptCost int, logger *zap.Logger) (UserService, error) {
	dummyHash, err := auth.HashPassword("not-a-real-password", bcryptCost)
	if err != nil {
		return nil, err
	}
	return &userService{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
		dummyHash:  dummyHash,
	}, nil
}

// Register hashes the password and stores a new user with the default role.
func (s *userService) Register(ctx context.Context, input *RegisterInput) (*models.User, error) {
	if input.Password == "" {
		return nil, newError(ErrInvalidInput, "Password is required")
	}

	hashedPassword, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Location: input.Location,
		Phone:    input.Phone,
		Password: hashedPassword,
		Role:     models.RoleUser,
	}
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", zap.Uint("id", user.ID), zap.String("username", user.Username))
	return &user, nil
}

// Login verifies the credentials and issues a token carrying the stored role.
// Unknown emails and wrong passwords produce the same error.
func (s *userService) Login(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("find user by email: %w", err)
		}
		auth.CheckPassword(input.Password, s.dummyHash)
		return nil, s.loginFailed(input.Email)
	}

	if !auth.CheckPassword(input.Password, user.Password) {
		return nil, s.loginFailed(input.Email)
	}

	token, err := s.tokens.Generate(auth.Identity{
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, Role: user.Role}, nil
}

func (s *userService) loginFailed(email string) error {
	s.logger.Warn("Login failed", zap.String("email", email))
	return newError(ErrInvalidCredentials, "Invalid email or password")
}

// ListUsers returns every user without password hashes.
func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateRole replaces the role of an existing user.
func (s *userService) UpdateRole(ctx context.Context, userID uint, role string) (*models.User, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, newError(ErrInvalidInput, "Role is required")
	}
	if len(role) > maxRoleLength {
		return nil, newError(ErrInvalidInput, fmt.Sprintf("Role must be at most %d characters", maxRoleLength))
	}

	user, err := s.repo.UpdateRole(ctx, userID, role)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "User not found")
		}
		return nil, fmt.Errorf("update user role: %w", err)
	}

	s.logger.Info("User role updated", zap.Uint("id", user.ID), zap.String("role", user.Role))
	return user, nil
}
