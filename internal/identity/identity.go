// Package identity resolves users from email addresses and issues
// session tokens for them.
package identity

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"

	"github.com/lumident/lumident/internal/apperr"
	"github.com/lumident/lumident/internal/model"
)

// UserStore is the slice of the repository the identity service needs.
type UserStore interface {
	GetOrCreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// SessionClaims are the claims carried in a session token.
type SessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service maps normalized emails to user records and mints session
// tokens once a caller has proven control of the address.
type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// New creates an identity service signing sessions with secret.
func New(store UserStore, secret string, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger.With("component", "identity"),
		now:    time.Now,
	}
}

// NormalizeEmail canonicalizes an address for identity comparison.
// Returns an error when the input is not a plausible address.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.New(apperr.InvalidArgument, "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.New(apperr.InvalidArgument, "invalid email address")
	}
	return email, nil
}

// LookupOrCreate resolves the user owning email, provisioning a record
// on first contact. The email must already be normalized.
func (s *Service) LookupOrCreate(ctx context.Context, email string) (*model.User, error) {
	user, err := s.store.GetOrCreateUser(ctx, &model.User{
		ID:        ulid.Make().String(),
		Email:     email,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "failed to resolve user", err)
	}
	return user, nil
}

// Lookup resolves an existing user by normalized email without
// provisioning one.
func (s *Service) Lookup(ctx context.Context, email string) (*model.User, error) {
	return s.store.GetUserByEmail(ctx, email)
}

// IssueSessionToken mints a signed session token for the user.
func (s *Service) IssueSessionToken(user *model.User) (string, error) {
	now := s.now()
	claims := SessionClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "failed to sign session token", err)
	}
	return signed, nil
}

// VerifySessionToken validates a session token and returns the caller
// it authenticates.
func (s *Service) VerifySessionToken(tokenString string) (*model.AuthContext, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.Newf(apperr.Unauthenticated, "unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthenticated, "invalid session token", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, apperr.New(apperr.Unauthenticated, "invalid session token")
	}
	return &model.AuthContext{UserID: claims.Subject, Email: claims.Email}, nil
}
