package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/engagement-core/internal/config"
	"github.com/spec-kit/engagement-core/internal/events"
)

// ArchivalService forwards resolved tickets to the platform collaborator,
// which owns the actual channel archival. This core only emits the request.
type ArchivalService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.ArchivalConfig
}

// NewArchivalService creates the service.
func NewArchivalService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.ArchivalConfig) *ArchivalService {
	return &ArchivalService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (a *ArchivalService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketResolved, a.handleTicketResolved)
}

func (a *ArchivalService) handleTicketResolved(_ context.Context, event events.Event) error {
	a.logger.Info("TicketResolved", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	if strings.TrimSpace(a.cfg.WebhookURL) == "" {
		return nil
	}
	// dispatch runs synchronously inside the ticket transition; the webhook
	// must not hold that path
	go a.sendArchivalWebhook(event)
	return nil
}

func (a *ArchivalService) sendArchivalWebhook(event events.Event) {
	body := fiber.Map{
		"event_id":  event.ID,
		"ticket_id": event.TicketID,
		"actor_id":  event.ActorID,
		"timestamp": event.Timestamp,
	}
	if payload, ok := event.Payload.(events.TicketResolvedPayload); ok {
		body["channel_ref"] = payload.ChannelRef
	}

	agent := fiber.Post(a.cfg.WebhookURL)
	agent.JSON(body)
	code, _, errs := agent.Bytes()
	if len(errs) > 0 {
		a.logger.Warn("archival webhook failed",
			zap.String("ticket_id", event.TicketID),
			zap.Errors("errors", errs))
		return
	}
	if code >= http.StatusMultipleChoices {
		a.logger.Warn("archival webhook rejected",
			zap.String("ticket_id", event.TicketID),
			zap.Int("status", code))
	}
}
