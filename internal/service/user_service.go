package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-backend/internal/auth"
	"todo-backend/internal/domain"
	"todo-backend/internal/repository"
)

const (
	minNewPasswordLength = 6

	// decoyPassword seeds the digest compared against when the username is unknown.
	decoyPassword = "decoy-password-for-unknown-users"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	Issue(username string, userID int64, role string, ttl time.Duration) (string, error)
	TTL() time.Duration
}

// CreateUserInput is the registration payload.
type CreateUserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Role      string
}

// AccessToken is the login response.
type AccessToken struct {
	AccessToken string
	TokenType   string
}

// UserService describes user lifecycle and credential operations.
type UserService interface {
	Register(ctx context.Context, in CreateUserInput) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*AccessToken, error)
	Current(ctx context.Context, identity *domain.Identity) (*domain.User, error)
	ChangePassword(ctx context.Context, identity *domain.Identity, currentPassword, newPassword string) error
}

type userService struct {
	store  repository.Manager
	hasher PasswordHasher
	tokens TokenIssuer

	// decoyDigest keeps an unknown-user login as slow as a wrong password.
	decoyDigest string
}

func NewUserService(store repository.Manager, hasher PasswordHasher, tokens TokenIssuer) UserService {
	// A failed hash leaves the decoy empty; Verify then still runs but returns quickly.
	decoy, _ := hasher.Hash(decoyPassword)
	return &userService{
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		decoyDigest: decoy,
	}
}

func (s *userService) Register(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)

	if in.Username == "" {
		return nil, domain.NewValidationError("username", "field required")
	}
	if in.Email == "" {
		return nil, domain.NewValidationError("email", "field required")
	}
	if in.Role == "" {
		return nil, domain.NewValidationError("role", "field required")
	}
	if err := validatePassword("password", in.Password, 1); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsActive:     true,
		Role:         in.Role,
	}
	if _, err := s.store.Users(s.store.Conn()).Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

// Authenticate returns domain.ErrUnauthenticated for an unknown user and for a wrong
// password alike.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.store.Users(s.store.Conn()).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.Verify(password, s.decoyDigest)
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrUnauthenticated
	}

	return sanitizeUser(user), nil
}

func (s *userService) Login(ctx context.Context, username, password string) (*AccessToken, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.Username, user.ID, user.Role, s.tokens.TTL())
	if err != nil {
		return nil, err
	}
	return &AccessToken{AccessToken: token, TokenType: auth.TokenType}, nil
}

func (s *userService) Current(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	userID, err := auth.OwnerScope(identity)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Users(s.store.Conn()).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// ChangePassword re-verifies currentPassword and replaces the stored hash in one transaction.
func (s *userService) ChangePassword(ctx context.Context, identity *domain.Identity, currentPassword, newPassword string) error {
	userID, err := auth.OwnerScope(identity)
	if err != nil {
		return err
	}
	if err := validatePassword("new_password", newPassword, minNewPasswordLength); err != nil {
		return err
	}

	return s.store.WithTx(ctx, func(ctx context.Context, tx repository.DBTX) error {
		users := s.store.Users(tx)

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if !s.hasher.Verify(currentPassword, user.PasswordHash) {
			return domain.ErrInvalidPassword
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return err
		}
		user.PasswordHash = hash
		if err := users.Update(ctx, user); err != nil {
			return fmt.Errorf("store new password: %w", err)
		}
		return nil
	})
}

func validatePassword(field, password string, minLen int) error {
	if len(password) < minLen {
		if minLen <= 1 {
			return domain.NewValidationError(field, "field required")
		}
		return domain.NewValidationError(field, "must be at least %d characters", minLen)
	}
	if len(password) > auth.MaxPasswordBytes {
		return domain.NewValidationError(field, "must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	clean := *user
	clean.PasswordHash = ""
	return &clean
}
