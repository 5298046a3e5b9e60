package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UsersHandler serves staff directory endpoints.
type UsersHandler struct {
	users     *service.UserService
	validator *validator.Validate
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService, validator: validator.New()}
}

// ByDivision handles GET /users/by-division.
func (h *UsersHandler) ByDivision(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	usernames, err := h.users.UsernamesByDivision(c.UserContext(), p, c.Query("division"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUsernameResponses(usernames))
}

// Register handles POST /users/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate(h.validator, &req); err != nil {
		return err
	}

	user, err := h.users.Register(c.UserContext(), p, service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Division: req.Division,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewStaffUser(user))
}
