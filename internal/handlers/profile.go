package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/vurel/internal/apperr"
	"github.com/example/vurel/internal/middleware"
	"github.com/example/vurel/internal/services"
)

// ProfileHandler manages user profile endpoints.
type ProfileHandler struct {
	auth *services.AuthService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(auth *services.AuthService) *ProfileHandler {
	return &ProfileHandler{auth: auth}
}

// GetProfile returns authenticated user profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("Token is missing")
	}
	return c.JSON(newProfileResponse(user))
}

type updateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Phone       *string `json:"phone"`
	DateOfBirth *string `json:"date_of_birth"`
}

// UpdateProfile updates the fields present in the body. An empty
// date_of_birth clears it.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return apperr.Unauthorized("Token is missing")
	}

	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	upd := services.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	if req.DateOfBirth != nil {
		if *req.DateOfBirth == "" {
			upd.ClearDateOfBirth = true
		} else {
			dob, err := time.Parse(dateLayout, *req.DateOfBirth)
			if err != nil {
				return apperr.Validation("date_of_birth must be YYYY-MM-DD")
			}
			upd.DateOfBirth = &dob
		}
	}

	updated, err := h.auth.UpdateProfile(c.UserContext(), user.ID, upd)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    newProfileResponse(updated),
	})
}
