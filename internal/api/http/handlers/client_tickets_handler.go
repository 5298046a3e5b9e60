package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ClientTicketsHandler serves the client portal ticket endpoints.
type ClientTicketsHandler struct {
	service   *service.TicketService
	validator *validator.Validate
}

// NewClientTicketsHandler constructs handler.
func NewClientTicketsHandler(ticketService *service.TicketService) *ClientTicketsHandler {
	return &ClientTicketsHandler{service: ticketService, validator: validator.New()}
}

// Create POST /clientAuth/client-tickets. The client id always comes from
// the token; a client_id form field is ignored.
func (h *ClientTicketsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.ClientTicketRequest
	input := service.ClientTicketCreateInput{}
	if isMultipart(c) {
		req = dto.ClientTicketRequest{
			Title:       c.FormValue("title"),
			Description: c.FormValue("description"),
			Category:    c.FormValue("category"),
			Division:    c.FormValue("division"),
		}
		if req.ProjectID, err = optionalID("project_id", c.FormValue("project_id")); err != nil {
			return err
		}
		attachment, closeFile, err := formAttachment(c)
		if err != nil {
			return err
		}
		defer closeFile()
		input.Attachment = attachment
	} else if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate(h.validator, &req); err != nil {
		return err
	}

	input.Title = req.Title
	input.Description = req.Description
	input.Category = req.Category
	input.Division = req.Division
	input.ProjectID = req.ProjectID

	ticket, err := h.service.CreateClientTicket(c.UserContext(), p, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

// List GET /clientAuth/client-tickets/:client_id.
func (h *ClientTicketsHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	clientID, err := pathID(c, "client_id")
	if err != nil {
		return err
	}
	tickets, err := h.service.ListClientTickets(c.UserContext(), p, clientID)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponses(tickets))
}
