package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/engagement-core/internal/api/dto"
	"github.com/spec-kit/engagement-core/internal/domain"
	"github.com/spec-kit/engagement-core/internal/service"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// TicketsHandler exposes read-only ticket lookups. Ticket writes enter only
// through the ingestion boundary, never through these routes.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler returns a new handler instance.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

// ListByStatus returns tickets in the queried status.
func (h *TicketsHandler) ListByStatus(c *fiber.Ctx) error {
	status := domain.TicketStatus(c.Query("status", string(domain.TicketStatusOpen)))

	tickets, err := h.tickets.ListByStatus(c.UserContext(), status)
	if err != nil {
		return err
	}
	result := make([]dto.TicketSummary, 0, len(tickets))
	for _, ticket := range tickets {
		result = append(result, dto.FromTicket(ticket))
	}
	return c.JSON(fiber.Map{"tickets": result})
}

// GetByChannel looks up the ticket bound to a channel.
func (h *TicketsHandler) GetByChannel(c *fiber.Ctx) error {
	channelRef := c.Params("channelRef")
	if channelRef == "" {
		return apperrors.NewValidationError("channel ref is required", nil)
	}

	ticket, err := h.tickets.GetByChannel(c.UserContext(), channelRef)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(*ticket))
}

// History returns a ticket's audit trail.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	if ticketID == "" {
		return apperrors.NewValidationError("ticket id is required", nil)
	}

	entries, err := h.tickets.History(c.UserContext(), ticketID)
	if err != nil {
		return err
	}
	result := make([]dto.TicketEventView, 0, len(entries))
	for _, entry := range entries {
		result = append(result, dto.FromTicketEvent(entry))
	}
	return c.JSON(fiber.Map{"events": result})
}
