package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// FileResolver maps a stored attachment name to a local path.
type FileResolver interface {
	Resolve(name string) (string, error)
}

// TicketsHandler manages the staff console ticket endpoints.
type TicketsHandler struct {
	service   *service.TicketService
	files     FileResolver
	validator *validator.Validate
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, files FileResolver) *TicketsHandler {
	return &TicketsHandler{service: ticketService, files: files, validator: validator.New()}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), p, service.TicketListInput{
		Division: c.Query("division"),
		Status:   c.Query("status"),
		Search:   c.Query("search"),
		Limit:    c.QueryInt("limit", 0),
		Offset:   c.QueryInt("offset", 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponses(tickets))
}

// CreateTicket POST /tickets. Accepts JSON or multipart with an attachment.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CreateTicketRequest
	input := service.TicketCreateInput{}
	if isMultipart(c) {
		if req, err = ticketForm(c); err != nil {
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
	input.Division = req.Division
	input.AssignedTo = req.AssignedTo
	input.ClientID = req.ClientID
	input.ProjectID = req.ProjectID

	ticket, err := h.service.CreateTicket(c.UserContext(), p, input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

func ticketForm(c *fiber.Ctx) (dto.CreateTicketRequest, error) {
	req := dto.CreateTicketRequest{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Division:    c.FormValue("division"),
		AssignedTo:  optionalString(c.FormValue("assigned_to")),
	}
	var err error
	if req.ClientID, err = optionalID("client_id", c.FormValue("client_id")); err != nil {
		return req, err
	}
	if req.ProjectID, err = optionalID("project_id", c.FormValue("project_id")); err != nil {
		return req, err
	}
	return req, nil
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// UpdateStatus PATCH /tickets/:id and PATCH /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate(h.validator, &req); err != nil {
		return err
	}
	ticket, err := h.service.SetStatus(c.UserContext(), p, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// Step returns the handler of a dedicated lifecycle endpoint such as
// PATCH /tickets/:id/start.
func (h *TicketsHandler) Step(action lifecycle.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := principal(c)
		if err != nil {
			return err
		}
		id, err := pathID(c, "id")
		if err != nil {
			return err
		}
		ticket, err := h.service.StepTicket(c.UserContext(), p, id, action)
		if err != nil {
			return err
		}
		return c.JSON(dto.NewTicketResponse(ticket))
	}
}

// Assign PATCH /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AssignTicket(c.UserContext(), p, id, req.AssignedTo)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// AddNote PATCH /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req dto.NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate(h.validator, &req); err != nil {
		return err
	}
	ticket, err := h.service.AddNote(c.UserContext(), p, id, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// History GET /tickets/:id/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	entries, err := h.service.History(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewHistoryResponses(entries))
}

// Export GET /tickets/export.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	data, format, filename, err := h.service.Export(c.UserContext(), p, c.Query("division"), c.Query("format"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, format.ContentType())
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Stats(c.UserContext(), p, c.Query("division"))
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// ServeFile GET /tickets/files/:name.
func (h *TicketsHandler) ServeFile(c *fiber.Ctx) error {
	path, err := h.files.Resolve(c.Params("name"))
	if err != nil {
		return err
	}
	return c.SendFile(path)
}
