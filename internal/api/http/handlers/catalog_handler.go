package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/service"
)

// CatalogHandler serves the client / infrastructure / project pickers.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Clients GET /tickets/clients.
func (h *CatalogHandler) Clients(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	clients, err := h.catalog.Clients(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(clients)
}

// Infrastructures GET /tickets/infrastructures?client_id=.
func (h *CatalogHandler) Infrastructures(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	clientID, err := requiredQueryID(c, "client_id")
	if err != nil {
		return err
	}
	items, err := h.catalog.Infrastructures(c.UserContext(), p, clientID)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// Projects GET /tickets/projects?infrastructure_id=.
func (h *CatalogHandler) Projects(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	infrastructureID, err := requiredQueryID(c, "infrastructure_id")
	if err != nil {
		return err
	}
	items, err := h.catalog.Projects(c.UserContext(), p, infrastructureID)
	if err != nil {
		return err
	}
	return c.JSON(items)
}

// ClientProjects GET /clientAuth/client-projects/:client_id.
func (h *CatalogHandler) ClientProjects(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	clientID, err := pathID(c, "client_id")
	if err != nil {
		return err
	}
	items, err := h.catalog.ClientProjects(c.UserContext(), p, clientID)
	if err != nil {
		return err
	}
	return c.JSON(items)
}
