package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mojoplatform/mojoauth/internal/apperrors"
	"github.com/mojoplatform/mojoauth/internal/logger"
	"github.com/mojoplatform/mojoauth/internal/models"
	"github.com/mojoplatform/mojoauth/internal/repository"
	"github.com/mojoplatform/mojoauth/internal/service/auth/tokenmanager"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Issues and consumes email verification codes
type CodeManager interface {
	Issue(ctx context.Context, userID uuid.UUID) (models.VerificationCode, error)
	Consume(ctx context.Context, userID uuid.UUID, code string) error
}

// Delivers verification codes to users
type Mailer interface {
	SendCode(ctx context.Context, toEmail string, code string) error
}

type Config struct {
	// Hasher to use during login or password change
	// BcryptHasher is used if not set
	Hasher PasswordHasher

	// When set, login with valid credentials issues an email code and
	// returns a pending result instead of tokens
	RequireEmailVerification bool

	// How long a background email send may take before it's abandoned
	MailTimeout time.Duration

	Logger logger.Logger
}

const defaultMailTimeout = 10 * time.Second

// Well-formed bcrypt hash that no password produces through the sha256
// pre-hash. Compared against when the email lookup misses, so the miss
// costs a full bcrypt round just like a wrong password does
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// LoginResult is the outcome of a successful credential check:
// either a token pair or a pending email verification step
type LoginResult struct {
	Pending bool
	Email   string
	Pair    models.TokenPair
}

type AuthService struct {
	tokens  *tokenmanager.TokenManager
	hasher  PasswordHasher
	codes   CodeManager
	mailer  Mailer
	storage repository.Storage

	requireVerification bool
	mailTimeout         time.Duration
	logger              logger.Logger
}

func NewService(cfg Config, tokens *tokenmanager.TokenManager, codes CodeManager, mailer Mailer, storage repository.Storage) (*AuthService, error) {
	if tokens == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}
	if cfg.RequireEmailVerification && (codes == nil || mailer == nil) {
		return nil, errors.New("email verification requires code manager and mailer")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	mailTimeout := cfg.MailTimeout
	if mailTimeout == 0 {
		mailTimeout = defaultMailTimeout
	}

	return &AuthService{
		tokens:              tokens,
		hasher:              hasher,
		codes:               codes,
		mailer:              mailer,
		storage:             storage,
		requireVerification: cfg.RequireEmailVerification,
		mailTimeout:         mailTimeout,
		logger:              log,
	}, nil
}

// Login checks credentials and either returns a fresh token pair or a
// pending result with an emailed verification code.
// Every failure before the credential check collapses into
// apperrors.ErrInvalidCredentials: the caller can't tell a missing account
// from a wrong password
func (s *AuthService) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		// Unknown email still pays one full comparison, otherwise the
		// response time alone would reveal which emails exist
		_ = s.hasher.Compare(dummyPasswordHash, password)
		return LoginResult{}, apperrors.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return LoginResult{}, apperrors.ErrInvalidCredentials
	}

	if !user.Active {
		return LoginResult{}, apperrors.ErrInvalidCredentials
	}

	if !s.requireVerification {
		pair, err := s.tokens.GeneratePair(user.ID)
		if err != nil {
			return LoginResult{}, fmt.Errorf("token could not generated, sorry. %w", err)
		}
		return LoginResult{Email: user.Email, Pair: pair}, nil
	}

	code, err := s.codes.Issue(ctx, user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("error while issuing verification code. Err: %w", err)
	}

	s.sendCodeAsync(user.Email, code.Code)

	return LoginResult{Pending: true, Email: user.Email}, nil
}

// CompleteVerification consumes the emailed code and issues the token pair
func (s *AuthService) CompleteVerification(ctx context.Context, email string, code string) (models.TokenPair, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	if err != nil {
		// No such user means no such code
		return models.TokenPair{}, apperrors.ErrCodeInvalidOrExpired
	}

	if err := s.codes.Consume(ctx, user.ID, code); err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.tokens.GeneratePair(user.ID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return pair, nil
}

// ResolveActor turns a bearer token string into the user it belongs to.
// Check order is fixed: signature and expiry, then revocation, then the
// user itself. A valid signature never survives a blacklisted token
func (s *AuthService) ResolveActor(ctx context.Context, tokenString string) (models.User, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return models.User{}, err
	}

	if claims.Kind != models.TokenKindAccess {
		return models.User{}, apperrors.ErrTokenWrongKind
	}

	revoked, err := s.storage.Blacklist().IsRevoked(ctx, tokenString)
	if err != nil {
		return models.User{}, fmt.Errorf("error while checking blacklist. Err: %w", err)
	}
	if revoked {
		return models.User{}, apperrors.ErrTokenRevoked
	}

	user, err := s.storage.User().GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, err
	}

	if !user.Active {
		return models.User{}, apperrors.ErrUserInactive
	}

	return user, nil
}

// Refresh issues a new access token for a valid refresh token.
// The refresh token itself is not rotated
func (s *AuthService) Refresh(ctx context.Context, refreshString string) (models.IssuedToken, error) {
	claims, err := s.tokens.Parse(refreshString)
	if err != nil {
		return models.IssuedToken{}, err
	}

	if claims.Kind != models.TokenKindRefresh {
		return models.IssuedToken{}, apperrors.ErrTokenWrongKind
	}

	revoked, err := s.storage.Blacklist().IsRevoked(ctx, refreshString)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while checking blacklist. Err: %w", err)
	}
	if revoked {
		return models.IssuedToken{}, apperrors.ErrTokenRevoked
	}

	user, err := s.storage.User().GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.IssuedToken{}, err
	}
	if !user.Active {
		return models.IssuedToken{}, apperrors.ErrUserInactive
	}

	access, err := s.tokens.Issue(user.ID, models.TokenKindAccess)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return access, nil
}

// ChangePassword verifies the old password, stores the new hash and
// revokes the token that authenticated this request, forcing re-login
func (s *AuthService) ChangePassword(ctx context.Context, user models.User, tokenString string, oldPassword, newPassword, confirm string) error {
	if newPassword != confirm {
		return apperrors.ErrPasswordMismatch
	}

	if err := s.hasher.Compare(user.HashedPassword, oldPassword); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, Err: %w", err)
	}

	return s.storage.InTx(ctx, func(st repository.Storage) error {
		if err := st.User().UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return st.Blacklist().Revoke(ctx, tokenString, time.Now())
	})
}

// RevokeToken puts the raw token string on the blacklist
func (s *AuthService) RevokeToken(ctx context.Context, tokenString string) error {
	return s.storage.Blacklist().Revoke(ctx, tokenString, time.Now())
}

// Send the code without blocking the login flow: delivery failure is
// logged, the user still exists and verification can be retried
func (s *AuthService) sendCodeAsync(email string, code string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.mailTimeout)
		defer cancel()

		if err := s.mailer.SendCode(ctx, email, code); err != nil {
			s.logger.Error("can't send verification code", "email", email, "error", err.Error())
		}
	}()
}
