package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/utils"
)

const (
	otpTTL            = 10 * time.Minute
	minPasswordLength = 6
)

// Session is an issued bearer token and the user it belongs to.
type Session struct {
	Token string
	User  *models.User
}

// OTPIssue describes a freshly issued one-time code. Code is set only when
// development echo is enabled.
type OTPIssue struct {
	Email     string
	EmailSent bool
	Code      string
	UserID    uuid.UUID
}

// AuthConfig holds token and OTP settings.
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
	DevEcho  bool
}

// RegisterInput holds account fields supplied at sign-up.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

// ProfileUpdate holds optional profile changes. Nil fields stay as they are.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	DateOfBirth *time.Time
	// ClearDateOfBirth removes a stored birth date.
	ClearDateOfBirth bool
}

// AuthService handles credentials, sessions and one-time codes.
type AuthService struct {
	users  UserStore
	otps   OTPStore
	mailer Mailer
	cfg    AuthConfig
	lg     *zap.Logger
	now    func() time.Time
}

// NewAuthService constructs AuthService.
func NewAuthService(users UserStore, otps OTPStore, mailer Mailer, cfg AuthConfig, lg *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		otps:   otps,
		mailer: mailer,
		cfg:    cfg,
		lg:     lg,
		now:    time.Now,
	}
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	return utils.GenerateToken(s.cfg.Secret, user.ID, s.cfg.TokenTTL)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := utils.ParseToken(s.cfg.Secret, token)
	switch {
	case errors.Is(err, utils.ErrTokenExpired):
		return nil, apperr.Unauthorized("Token has expired")
	case err != nil:
		return nil, apperr.Unauthorized("Invalid token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("User not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a verified account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("Email already registered")
	}

	user, err := s.newUser(in, true)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, emailConflict(err)
	}
	return s.session(user)
}

// Login checks an email and password pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, apperr.Unauthorized("Invalid email or password")
	}
	return s.session(user)
}

// SendOTP issues a code for register or login. Registration is refused for
// an already verified email and login requires an existing account.
func (s *AuthService) SendOTP(ctx context.Context, email string, purpose models.OTPPurpose) (*OTPIssue, error) {
	if purpose != models.OTPPurposeRegister && purpose != models.OTPPurposeLogin {
		return nil, apperr.Validation("purpose must be register or login")
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	switch purpose {
	case models.OTPPurposeRegister:
		if existing != nil && existing.IsVerified {
			return nil, apperr.Conflict("Email already registered")
		}
	case models.OTPPurposeLogin:
		if existing == nil {
			return nil, apperr.NotFound("Email not found")
		}
	}

	return s.issueOTP(ctx, email, purpose)
}

// VerifyOTP consumes a code. Register codes mark the account verified and
// login codes sign the user in; both return a session when the account
// exists. Reset codes return no session.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string, purpose models.OTPPurpose) (*Session, error) {
	if !purpose.Valid() {
		return nil, apperr.Validation("invalid purpose")
	}
	if err := s.consumeOTP(ctx, email, code, purpose); err != nil {
		return nil, err
	}
	if purpose == models.OTPPurposeReset {
		return nil, nil
	}

	user, err := s.users.GetByEmail(ctx, email)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if purpose == models.OTPPurposeRegister && !user.IsVerified {
		user.IsVerified = true
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return s.session(user)
}

// RegisterWithOTP creates an unverified account, replacing an earlier
// unverified one for the same email, and sends a register code.
func (s *AuthService) RegisterWithOTP(ctx context.Context, in RegisterInput) (*OTPIssue, error) {
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.IsVerified {
			return nil, apperr.Conflict("Email already registered")
		}
		if err := s.users.Delete(ctx, existing.ID); err != nil {
			return nil, err
		}
	}

	user, err := s.newUser(in, false)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, emailConflict(err)
	}

	issue, err := s.issueOTP(ctx, user.Email, models.OTPPurposeRegister)
	if err != nil {
		return nil, err
	}
	issue.UserID = user.ID
	return issue, nil
}

// ForgotPassword sends a reset code to an existing account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*OTPIssue, error) {
	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.NotFound("Email not found")
		}
		return nil, err
	}
	return s.issueOTP(ctx, email, models.OTPPurposeReset)
}

// ResetPassword sets a new password after consuming a reset code.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return apperr.Validation("Password must be at least 6 characters")
	}
	if err := s.consumeOTP(ctx, email, code, models.OTPPurposeReset); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// UpdateProfile applies the non-nil fields of upd.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.FirstName != nil {
		user.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		user.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Phone != nil {
		user.Phone = strings.TrimSpace(*upd.Phone)
	}
	switch {
	case upd.ClearDateOfBirth:
		user.DateOfBirth = nil
	case upd.DateOfBirth != nil:
		user.DateOfBirth = upd.DateOfBirth
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// User returns the user with id.
func (s *AuthService) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) issueOTP(ctx context.Context, email string, purpose models.OTPPurpose) (*OTPIssue, error) {
	code, err := utils.GenerateOTP()
	if err != nil {
		return nil, errors.Wrap(err, "generate otp")
	}

	otp := &models.OTPCode{
		Email:     strings.ToLower(email),
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(otpTTL),
	}
	if err := s.otps.Replace(ctx, otp); err != nil {
		return nil, err
	}

	issue := &OTPIssue{Email: otp.Email}
	if err := s.mailer.SendOTP(ctx, otp.Email, code, purpose); err != nil {
		s.lg.Warn("OTP email not delivered",
			zap.String("purpose", string(purpose)),
			zap.Error(err),
		)
	} else {
		issue.EmailSent = true
	}
	if s.cfg.DevEcho {
		issue.Code = code
	}
	return issue, nil
}

func (s *AuthService) consumeOTP(ctx context.Context, email, code string, purpose models.OTPPurpose) error {
	err := s.otps.Consume(ctx, email, code, purpose, s.now())
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.Validation("Invalid or expired OTP")
	}
	return err
}

func (s *AuthService) newUser(in RegisterInput, verified bool) (*models.User, error) {
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	return &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		IsVerified:   verified,
	}, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: user}, nil
}

// emailConflict rewrites a store uniqueness failure on users.
func emailConflict(err error) error {
	if apperr.Is(err, apperr.KindConflict) {
		return apperr.Wrap(apperr.KindConflict, err, "Email already registered")
	}
	return err
}
