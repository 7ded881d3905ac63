package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/middleware"
	"github.com/example/vurel/internal/models"
	"github.com/example/vurel/internal/services"
)

// AuthHandler serves the password and OTP authentication endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Phone     string `json:"phone"`
}

func (r registerRequest) input() services.RegisterInput {
	return services.RegisterInput{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Email:     r.Email,
		Password:  r.Password,
		Phone:     r.Phone,
	}
}

// Register creates a verified account and signs it in.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.Register(c.UserContext(), req.input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newSessionResponse(session, ""))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	session, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(newSessionResponse(session, ""))
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("Token is missing")
	}
	return c.JSON(newProfileResponse(user))
}

type otpIssueResponse struct {
	Message   string     `json:"message"`
	Email     string     `json:"email"`
	EmailSent bool       `json:"email_sent"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	DevCode   string     `json:"otp_code_dev_only,omitempty"`
}

func newOTPIssueResponse(issue *services.OTPIssue, message string) otpIssueResponse {
	resp := otpIssueResponse{
		Message:   message,
		Email:     issue.Email,
		EmailSent: issue.EmailSent,
		DevCode:   issue.Code,
	}
	if issue.UserID != uuid.Nil {
		resp.UserID = &issue.UserID
	}
	return resp
}

type sendOTPRequest struct {
	Email   string            `json:"email" validate:"required,email"`
	Purpose models.OTPPurpose `json:"purpose" validate:"omitempty,oneof=register login"`
}

// SendOTP issues a register or login code.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req sendOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Purpose == "" {
		req.Purpose = models.OTPPurposeRegister
	}

	issue, err := h.auth.SendOTP(c.UserContext(), req.Email, req.Purpose)
	if err != nil {
		return err
	}
	return c.JSON(newOTPIssueResponse(issue, "OTP sent successfully"))
}

type verifyOTPRequest struct {
	Email   string            `json:"email" validate:"required"`
	Code    string            `json:"code" validate:"required"`
	Purpose models.OTPPurpose `json:"purpose" validate:"omitempty,oneof=register login reset"`
}

// VerifyOTP consumes a code, signing the user in for register and login.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Purpose == "" {
		req.Purpose = models.OTPPurposeRegister
	}

	session, err := h.auth.VerifyOTP(c.UserContext(), req.Email, req.Code, req.Purpose)
	if err != nil {
		return err
	}
	if session == nil {
		return c.JSON(fiber.Map{"message": "OTP verified successfully"})
	}

	message := "Email verified successfully"
	if req.Purpose == models.OTPPurposeLogin {
		message = "Login successful"
	}
	return c.JSON(newSessionResponse(session, message))
}

// RegisterWithOTP creates an unverified account and sends a register code.
func (h *AuthHandler) RegisterWithOTP(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	issue, err := h.auth.RegisterWithOTP(c.UserContext(), req.input())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newOTPIssueResponse(issue, "Account created. Please verify your email."))
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

// ForgotPassword sends a password reset code.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	issue, err := h.auth.ForgotPassword(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(newOTPIssueResponse(issue, "Password reset OTP sent to your email"))
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ResetPassword sets a new password using a reset code.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password reset successfully"})
}
