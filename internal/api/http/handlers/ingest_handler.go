package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/engagement-core/internal/api/dto"
	"github.com/spec-kit/engagement-core/internal/ingest"
	"github.com/spec-kit/engagement-core/internal/service"
)

// IngestHandler is the HTTP face of the ingestion boundary: the platform
// gateway posts one event per request and gets the typed outcome back.
// There is no retry or queueing here; a failed event is the caller's to
// resubmit.
type IngestHandler struct {
	router *ingest.Router
	audit  *service.AuditService
}

// NewIngestHandler constructs handler.
func NewIngestHandler(router *ingest.Router, audit *service.AuditService) *IngestHandler {
	return &IngestHandler{router: router, audit: audit}
}

// Event handles POST /ingest/events.
func (h *IngestHandler) Event(c *fiber.Ctx) error {
	var req dto.IngestEventRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	event, err := req.ToEvent()
	if err != nil {
		return err
	}
	if err := h.router.Dispatch(c.UserContext(), event); err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"kind": event.Kind()})
}

// ClassifierCall handles POST /ingest/classifier-calls.
func (h *IngestHandler) ClassifierCall(c *fiber.Ctx) error {
	var req dto.ClassifierCallRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	log, err := h.audit.RecordClassifierCall(c.UserContext(), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": log.ID})
}

// ClassifierCalls handles GET /ingest/classifier-calls.
func (h *IngestHandler) ClassifierCalls(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	logs, err := h.audit.ListRecent(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"calls": logs})
}
