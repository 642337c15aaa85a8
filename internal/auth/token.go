package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"todo-backend/internal/domain"
)

const (
	// TokenType is returned to clients alongside the access token.
	TokenType = "bearer"

	DefaultTokenTTL = 20 * time.Minute
)

var errIncompleteClaims = errors.New("token is missing subject or user id")

// Claims is the JWT payload: sub (username), id, role and exp.
type Claims struct {
	UserID *int64 `json:"id,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenService. Now defaults to time.Now.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

// TokenService issues and validates HS256 signed access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &TokenService{secret: secret, ttl: cfg.TTL, now: cfg.Now}, nil
}

// TTL is the lifetime applied when Issue is called with a zero ttl.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the given identity that expires ttl from now.
// A zero ttl uses the configured lifetime.
func (s *TokenService) Issue(username string, userID int64, role string, ttl time.Duration) (string, error) {
	if ttl == 0 {
		ttl = s.ttl
	}
	id := userID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: &id,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(s.now().Add(ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, algorithm and expiry and returns the identity the token asserts.
// Every failure is a *RejectionError matching domain.ErrUnauthenticated.
func (s *TokenService) Validate(tokenString string) (domain.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return domain.Identity{}, &RejectionError{Reason: err}
	}
	if !token.Valid {
		return domain.Identity{}, &RejectionError{Reason: jwt.ErrTokenSignatureInvalid}
	}
	if claims.Subject == "" || claims.UserID == nil {
		return domain.Identity{}, &RejectionError{Reason: errIncompleteClaims}
	}

	return domain.Identity{
		Username: claims.Subject,
		UserID:   *claims.UserID,
		Role:     claims.Role,
	}, nil
}

// RejectionError keeps the reason a token was refused for logging. Its message is always
// the uniform unauthenticated one.
type RejectionError struct {
	Reason error
}

func (e *RejectionError) Error() string {
	return domain.ErrUnauthenticated.Error()
}

func (e *RejectionError) Unwrap() []error {
	return []error{domain.ErrUnauthenticated, e.Reason}
}
