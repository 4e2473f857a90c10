package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskmanager/internal/common"
	"taskmanager/internal/common/security"
	"taskmanager/internal/domain/model"
	"taskmanager/internal/domain/repository"
)

// VerificationMailer delivers the email-verification link.
type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
}

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenIssuer
	mailer   VerificationMailer
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenIssuer, mailer VerificationMailer, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

type RegisterRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat, validation.Length(0, 254)),
		// bcrypt only looks at the first 72 bytes.
		validation.Field(&r.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&r.FirstName, validation.NilOrNotEmpty, validation.Length(0, 100)),
		validation.Field(&r.LastName, validation.NilOrNotEmpty, validation.Length(0, 100)),
	)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified user and emails the verification link.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.UserProfile, error) {
	email := normalizeEmail(req.Email)

	_, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("user with this email already exists: %w", common.ErrConflict)
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	verificationToken, err := security.NewVerificationToken()
	if err != nil {
		return nil, err
	}
	digest := security.DigestToken(verificationToken)

	now := s.now().UTC().Truncate(time.Microsecond)
	user := &model.User{
		ID:                uuid.NewString(),
		Email:             email,
		HashedPassword:    hashedPassword,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Role:              model.RoleUser,
		IsEmailVerified:   false,
		VerificationToken: &digest,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("user with this email already exists: %w", common.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))

	if err := s.mailer.SendVerificationEmail(ctx, user.Email, verificationToken); err != nil {
		return nil, fmt.Errorf("failed to send verification email: %w", err)
	}

	return user.Profile(), nil
}

// Login exchanges credentials for a token pair. Unknown email and wrong password fail
// identically.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*security.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Spend the same bcrypt effort as a real comparison.
			security.CheckPasswordHash(req.Password, dummyPasswordHash())
			return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, fmt.Errorf("invalid credentials: %w", common.ErrUnauthorized)
	}

	return s.issueAndStore(ctx, user)
}

// Refresh rotates the token pair. The presented token must match the stored hash, so a
// superseded refresh token is rejected.
func (s *AuthService) Refresh(ctx context.Context, userID, presentedToken string) (*security.TokenPair, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("access denied: %w", common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.RefreshToken == nil || !security.CheckTokenHash(presentedToken, *user.RefreshToken) {
		return nil, fmt.Errorf("access denied: %w", common.ErrUnauthorized)
	}

	return s.issueAndStore(ctx, user)
}

// Logout revokes the stored refresh token.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.userRepo.UpdateRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("access denied: %w", common.ErrUnauthorized)
		}
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// VerifyEmail consumes a verification token. Tokens are single use.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &common.ValidationError{Fields: map[string]string{"token": "cannot be blank"}}
	}

	user, err := s.userRepo.FindByVerificationToken(ctx, security.DigestToken(token))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return fmt.Errorf("invalid verification token: %w", common.ErrNotFound)
		}
		return fmt.Errorf("failed to find verification token: %w", err)
	}

	if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	s.logger.Info("email verified", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*model.UserProfile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("user not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user.Profile(), nil
}

func (s *AuthService) issueAndStore(ctx context.Context, user *model.User) (*security.TokenPair, error) {
	pair, err := s.tokens.IssuePair(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	hashed, err := security.HashToken(pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to hash refresh token: %w", err)
	}
	if err := s.userRepo.UpdateRefreshToken(ctx, user.ID, &hashed); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return pair, nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

func dummyPasswordHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = security.HashPassword(uuid.NewString())
	})
	return dummyHash
}
