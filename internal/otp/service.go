// Package otp implements one-time-code email authentication.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/lumident/lumident/internal/apperr"
	"github.com/lumident/lumident/internal/email"
	"github.com/lumident/lumident/internal/identity"
	"github.com/lumident/lumident/internal/metrics"
	"github.com/lumident/lumident/internal/model"
	"github.com/lumident/lumident/internal/repository"
)

// ChallengeStore is the slice of the repository the OTP service needs.
type ChallengeStore interface {
	GetOTPChallenge(ctx context.Context, userID string) (*model.OTPChallenge, error)
	PutOTPChallenge(ctx context.Context, c *model.OTPChallenge) error
	ClaimOTPAttempt(ctx context.Context, userID string, now time.Time) (*model.OTPChallenge, error)
	DeleteOTPChallenge(ctx context.Context, userID string) error
	EnsureEntitlement(ctx context.Context, userID string, now time.Time) (*model.Entitlement, error)
}

// Identity is the slice of the identity service the OTP flow needs.
type Identity interface {
	LookupOrCreate(ctx context.Context, email string) (*model.User, error)
	Lookup(ctx context.Context, email string) (*model.User, error)
	IssueSessionToken(user *model.User) (string, error)
}

// VerifyResult is the outcome of a successful code verification.
type VerifyResult struct {
	User  *model.User
	Token string
}

// Service owns the request/verify lifecycle of one-time codes.
type Service struct {
	store        ChallengeStore
	identity     Identity
	sender       email.Sender
	secret       string
	logger       *slog.Logger
	metrics      metrics.Recorder
	emailTimeout time.Duration
}

// New creates an OTP service. The secret is mixed into stored code
// hashes so a leaked challenge table alone cannot be brute-forced
// offline.
func New(store ChallengeStore, ident Identity, sender email.Sender, secret string, emailTimeout time.Duration, logger *slog.Logger, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Service{
		store:        store,
		identity:     ident,
		sender:       sender,
		secret:       secret,
		logger:       logger.With("component", "otp"),
		metrics:      recorder,
		emailTimeout: emailTimeout,
	}
}

// hashCode binds a code to the address it was issued for, keyed by the
// service secret.
func (s *Service) hashCode(code, emailAddr string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", code, emailAddr, s.secret)))
	return hex.EncodeToString(sum[:])
}

// generateCode returns a uniformly random six-digit code.
func generateCode() (string, error) {
	// 100000..999999 so the code never has a leading zero.
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// RequestCode issues a new one-time code for the address and dispatches
// it by email. A repeat request inside the resend cooldown changes
// nothing and is rejected. Each issued code replaces any prior pending
// challenge for the user.
func (s *Service) RequestCode(ctx context.Context, rawEmail string, now time.Time) error {
	addr, err := identity.NormalizeEmail(rawEmail)
	if err != nil {
		s.metrics.IncOTPRequested("rejected")
		return err
	}

	user, err := s.identity.LookupOrCreate(ctx, addr)
	if err != nil {
		s.metrics.IncOTPRequested("rejected")
		return err
	}

	// First contact starts the trial clock; subsequent calls are no-ops.
	if _, err := s.store.EnsureEntitlement(ctx, user.ID, now); err != nil {
		s.metrics.IncOTPRequested("rejected")
		return apperr.Wrap(apperr.Internal, "failed to provision entitlement", err)
	}

	existing, err := s.store.GetOTPChallenge(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrChallengeNotFound) {
		s.metrics.IncOTPRequested("rejected")
		return apperr.Wrap(apperr.Internal, "failed to load challenge", err)
	}
	if existing != nil && now.Before(existing.NextAllowedAt) {
		s.metrics.IncOTPRequested("rejected")
		return apperr.New(apperr.ResourceExhausted, "please wait before requesting another code")
	}

	code, err := generateCode()
	if err != nil {
		s.metrics.IncOTPRequested("rejected")
		return apperr.Wrap(apperr.Internal, "failed to generate code", err)
	}

	challenge := &model.OTPChallenge{
		UserID:        user.ID,
		CodeHash:      s.hashCode(code, addr),
		ExpiresAt:     now.Add(model.OTPTTL),
		Attempts:      0,
		NextAllowedAt: now.Add(model.OTPResendCooldown),
		CreatedAt:     now,
	}
	if err := s.store.PutOTPChallenge(ctx, challenge); err != nil {
		s.metrics.IncOTPRequested("rejected")
		return apperr.Wrap(apperr.Internal, "failed to store challenge", err)
	}

	s.dispatch(addr, code)

	s.metrics.IncOTPRequested("issued")
	s.logger.Info("otp issued", "user_id", user.ID)
	return nil
}

// dispatch sends the code asynchronously. Delivery failures are logged,
// never surfaced to the requester; the challenge is already committed.
func (s *Service) dispatch(addr, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.emailTimeout)
		defer cancel()

		msg := email.Message{
			To:      addr,
			Subject: "Your sign-in code",
			Text:    fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(model.OTPTTL.Minutes())),
		}
		if err := s.sender.Send(ctx, msg); err != nil {
			s.logger.Error("failed to deliver otp email", "error", err)
		}
	}()
}

// VerifyCode checks a submitted code against the pending challenge.
// Every call consumes one attempt, including the one that succeeds.
// On success the challenge is deleted and a session token issued.
func (s *Service) VerifyCode(ctx context.Context, rawEmail, code string, now time.Time) (*VerifyResult, error) {
	addr, err := identity.NormalizeEmail(rawEmail)
	if err != nil {
		s.metrics.IncOTPVerified("failed")
		return nil, err
	}

	user, err := s.identity.Lookup(ctx, addr)
	if err != nil {
		s.metrics.IncOTPVerified("failed")
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperr.New(apperr.NotFound, "no code was requested for this address")
		}
		return nil, apperr.Wrap(apperr.Internal, "failed to resolve user", err)
	}

	challenge, err := s.store.ClaimOTPAttempt(ctx, user.ID, now)
	if err != nil {
		s.metrics.IncOTPVerified("failed")
		switch {
		case errors.Is(err, repository.ErrChallengeNotFound):
			return nil, apperr.New(apperr.FailedPrecondition, "no code was requested for this address")
		case errors.Is(err, repository.ErrChallengeExpired):
			return nil, apperr.New(apperr.DeadlineExceeded, "code has expired, request a new one")
		case errors.Is(err, repository.ErrTooManyAttempts):
			return nil, apperr.New(apperr.ResourceExhausted, "too many attempts, request a new code")
		default:
			return nil, apperr.Wrap(apperr.Internal, "failed to claim attempt", err)
		}
	}

	expected := s.hashCode(code, addr)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(challenge.CodeHash)) != 1 {
		s.metrics.IncOTPVerified("failed")
		return nil, apperr.New(apperr.PermissionDenied, "incorrect code")
	}

	if err := s.store.DeleteOTPChallenge(ctx, user.ID); err != nil {
		s.metrics.IncOTPVerified("failed")
		return nil, apperr.Wrap(apperr.Internal, "failed to consume challenge", err)
	}
	if _, err := s.store.EnsureEntitlement(ctx, user.ID, now); err != nil {
		s.metrics.IncOTPVerified("failed")
		return nil, apperr.Wrap(apperr.Internal, "failed to provision entitlement", err)
	}

	token, err := s.identity.IssueSessionToken(user)
	if err != nil {
		s.metrics.IncOTPVerified("failed")
		return nil, err
	}

	s.metrics.IncOTPVerified("success")
	s.logger.Info("otp verified", "user_id", user.ID)
	return &VerifyResult{User: user, Token: token}, nil
}
