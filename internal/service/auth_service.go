package service

import (
	"context"
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/mvasiljevic/delivery-shop/internal/config"
	"github.com/mvasiljevic/delivery-shop/internal/models"
	"github.com/mvasiljevic/delivery-shop/internal/repository"
	"github.com/mvasiljevic/delivery-shop/pkg/apperrors"
	"github.com/mvasiljevic/delivery-shop/pkg/logger"
	"github.com/mvasiljevic/delivery-shop/pkg/token"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 8

// RegisterRequest carries a registration's validated fields.
type RegisterRequest struct {
	Forename string
	Surname  string
	Email    string
	Password string
}

// AuthService handles registration, login and account deletion. Tokens it
// issues carry the roles the authorization middleware checks against.
type AuthService struct {
	users  repository.UserRepository
	tokens *token.Manager
	logger logger.Logger
}

func NewAuthService(users repository.UserRepository, tokens *token.Manager, log logger.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: log}
}

// Register creates an account with the given role. Field checks run in a
// fixed order so failure messages are deterministic.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, role string) error {
	if req.Forename == "" {
		return apperrors.NewValidation("Field forename is missing.")
	}
	if req.Surname == "" {
		return apperrors.NewValidation("Field surname is missing.")
	}
	if req.Email == "" {
		return apperrors.NewValidation("Field email is missing.")
	}
	if req.Password == "" {
		return apperrors.NewValidation("Field password is missing.")
	}
	if !emailPattern.MatchString(req.Email) {
		return apperrors.NewValidation("Invalid email.")
	}
	if len(req.Password) < minPasswordLength {
		return apperrors.NewValidation("Invalid password.")
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return apperrors.NewValidation("Email already exists.")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Forename: req.Forename,
		Surname:  req.Surname,
		Email:    req.Email,
		Password: string(hash),
	}

	if err := s.users.Create(ctx, user, role); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Registration raced another on the same email.
			return apperrors.NewValidation("Email already exists.")
		}
		return err
	}

	s.logger.Info("User registered", "email", req.Email, "role", role)
	return nil
}

// Login verifies credentials and issues a signed access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" {
		return "", apperrors.NewValidation("Field email is missing.")
	}
	if password == "" {
		return "", apperrors.NewValidation("Field password is missing.")
	}
	if !emailPattern.MatchString(email) {
		return "", apperrors.NewValidation("Invalid email.")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.NewValidation("Invalid credentials.")
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", apperrors.NewValidation("Invalid credentials.")
	}

	accessToken, err := s.tokens.Issue(user.Email, user.Forename, user.Surname, user.Roles)
	if err != nil {
		return "", err
	}

	s.logger.Info("User logged in", "email", email)
	return accessToken, nil
}

// Delete removes the authenticated user's own account.
func (s *AuthService) Delete(ctx context.Context, email string) error {
	if err := s.users.DeleteByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidation("Unknown user.")
		}
		return err
	}

	s.logger.Info("User deleted", "email", email)
	return nil
}

// SeedOwner creates the initial store owner account if it does not exist.
func (s *AuthService) SeedOwner(ctx context.Context, seed config.OwnerSeed) error {
	if _, err := s.users.GetByEmail(ctx, seed.Email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	owner := &models.User{
		Forename: seed.Forename,
		Surname:  seed.Surname,
		Email:    seed.Email,
		Password: string(hash),
	}

	if err := s.users.Create(ctx, owner, models.RoleOwner); err != nil {
		return err
	}

	s.logger.Info("Store owner seeded", "email", seed.Email)
	return nil
}
