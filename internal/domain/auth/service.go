package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eventhub/eventhub-api/internal/domain/reward"
	"github.com/eventhub/eventhub-api/internal/domain/user"
	"github.com/eventhub/eventhub-api/internal/pkg/database"
	"github.com/eventhub/eventhub-api/internal/pkg/google"
	"github.com/eventhub/eventhub-api/internal/pkg/jwt"
	"github.com/eventhub/eventhub-api/internal/pkg/password"
	"github.com/eventhub/eventhub-api/internal/pkg/slug"
)

// referralCodeAttempts bounds retries on a generated referral code collision.
const referralCodeAttempts = 3

// GoogleClient resolves a Google access token to a profile.
type GoogleClient interface {
	UserInfo(ctx context.Context, accessToken string) (*google.UserInfo, error)
}

// Mailer sends auth related emails asynchronously.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, resetURL string) error
	SendWelcome(to, name, referralCode string)
}

// Service handles authentication business logic
type Service struct {
	users       user.Repository
	store       RegistrationStore
	jwt         *jwt.Service
	google      GoogleClient
	resets      ResetTokenStore
	mailer      Mailer
	frontendURL string
	now         func() time.Time
}

// NewService creates auth service
func NewService(
	users user.Repository,
	store RegistrationStore,
	jwtService *jwt.Service,
	googleClient GoogleClient,
	resets ResetTokenStore,
	mailer Mailer,
	frontendURL string,
) *Service {
	return &Service{
		users:       users,
		store:       store,
		jwt:         jwtService,
		google:      googleClient,
		resets:      resets,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

// Register creates a credential account. A valid referrer code rewards
// the referrer with points and the new user with a coupon in the same
// database transaction.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*user.User, error) {
	email := user.NormalizeEmail(req.Email)

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	var referral *ReferralReward
	var referredBy sql.NullInt64
	if code := strings.TrimSpace(req.ReferrerCode); code != "" {
		referrer, err := s.users.GetByReferralCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if referrer == nil {
			return nil, ErrInvalidReferral
		}
		expiresAt := reward.ExpiryFrom(s.now())
		referral = &ReferralReward{
			ReferrerID:     referrer.ID,
			ReferrerPoints: reward.ReferralPoints,
			CouponCode:     reward.NewCouponCode(),
			CouponRate:     reward.ReferralCouponRate,
			ExpiresAt:      expiresAt,
		}
		referredBy = sql.NullInt64{Int64: referrer.ID, Valid: true}
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		Name:       strings.TrimSpace(req.Name),
		Email:      email,
		Password:   hash,
		Role:       user.Role(req.Role),
		Provider:   user.ProviderCredential,
		ReferredBy: referredBy,
	}
	if err := s.create(ctx, u, referral); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", u.ID).Str("role", string(u.Role)).Bool("referred", referral != nil).Msg("User registered")
	s.mailer.SendWelcome(u.Email, u.Name, u.ReferralCode)
	return u, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	existing, err := s.users.GetByEmailIncludingDeleted(ctx, email)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	if existing.IsDeleted() {
		return ErrEmailDeleted
	}
	return ErrEmailAlreadyExists
}

// create assigns a referral code and persists u, retrying on code collisions.
func (s *Service) create(ctx context.Context, u *user.User, referral *ReferralReward) error {
	for attempt := 1; ; attempt++ {
		u.ReferralCode = slug.ReferralCode(u.Name)
		if referral != nil {
			referral.CouponCode = reward.NewCouponCode()
		}

		err := s.store.CreateUser(ctx, u, referral)
		switch {
		case err == nil:
			return nil
		case database.IsUniqueViolation(err, "users_email_key"):
			return ErrEmailAlreadyExists
		case attempt < referralCodeAttempts &&
			(database.IsUniqueViolation(err, "users_referral_code_key") || database.IsUniqueViolation(err, "coupons_coupon_code_key")):
			continue
		default:
			return fmt.Errorf("create user: %w", err)
		}
	}
}

// Login checks credentials and issues an access token
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if u == nil || !password.Verify(req.Password, u.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// Google signs in with a Google access token, creating a customer
// account on first use.
func (s *Service) Google(ctx context.Context, req *GoogleRequest) (*AuthResult, error) {
	info, err := s.google.UserInfo(ctx, req.AccessToken)
	if err != nil {
		if errors.Is(err, google.ErrInvalidToken) {
			return nil, ErrInvalidGoogleToken
		}
		return nil, err
	}

	email := user.NormalizeEmail(info.Email)
	u, err := s.users.GetByEmailIncludingDeleted(ctx, email)
	if err != nil {
		return nil, err
	}

	switch {
	case u == nil:
		name := strings.TrimSpace(info.Name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		u = &user.User{
			Name:     name,
			Email:    email,
			Role:     user.RoleCustomer,
			Provider: user.ProviderGoogle,
		}
		if info.Picture != "" {
			u.ProfilePicture = sql.NullString{String: info.Picture, Valid: true}
		}
		if err := s.create(ctx, u, nil); err != nil {
			return nil, err
		}
		log.Info().Int64("user_id", u.ID).Msg("User registered with Google")
	case u.IsDeleted():
		return nil, ErrEmailDeleted
	case u.Provider != user.ProviderGoogle:
		return nil, ErrNotGoogleAccount
	}

	return s.issue(u)
}

func (s *Service) issue(u *user.User) (*AuthResult, error) {
	token, err := s.jwt.GenerateAccessToken(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResult{User: u.ToResponse(), AccessToken: token}, nil
}

// ForgotPassword emails a reset link. Unknown emails are silently ignored
// so the endpoint does not reveal which addresses have accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return err
	}
	if u == nil || u.Provider == user.ProviderGoogle {
		return nil
	}

	token, jti, err := s.jwt.GenerateResetToken(u.ID, ResetTokenTTL)
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.resets.Save(ctx, jti, u.ID, ResetTokenTTL); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, url.PathEscape(token))
	if err := s.mailer.SendPasswordReset(ctx, u.Email, u.Name, resetURL); err != nil {
		log.Error().Err(err).Int64("user_id", u.ID).Msg("Failed to send password reset email")
		return ErrResetEmailFailed
	}
	return nil
}

// ResetPassword consumes a reset token and sets the new password
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.jwt.ValidateResetToken(token)
	if err != nil {
		return ErrInvalidResetToken
	}

	userID, err := s.resets.Consume(ctx, claims.RegisteredClaims.ID)
	if errors.Is(err, errResetTokenUnknown) || (err == nil && userID != claims.UserID) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
