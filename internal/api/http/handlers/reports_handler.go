package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/engagement-core/internal/service"
	apperrors "github.com/spec-kit/engagement-core/pkg/util"
)

// ReportsHandler exposes the read-only derived views to reporting consumers.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler returns a new handler instance.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// Score returns a user's windowed engagement score.
func (h *ReportsHandler) Score(c *fiber.Ctx) error {
	externalID := c.Params("externalID")
	if externalID == "" {
		return apperrors.NewValidationError("external id is required", nil)
	}
	window := windowFromQuery(c, 7)

	report, err := h.reports.UserScore(c.UserContext(), externalID, window)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// Growth returns daily net member growth.
func (h *ReportsHandler) Growth(c *fiber.Ctx) error {
	window := windowFromQuery(c, 7)
	rows, err := h.reports.DailyNetGrowth(c.UserContext(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"days": rows})
}

// Presence returns aggregated session statistics.
func (h *ReportsHandler) Presence(c *fiber.Ctx) error {
	window := windowFromQuery(c, 7)
	report, err := h.reports.PresenceStats(c.UserContext(), window)
	if err != nil {
		return err
	}
	return c.JSON(report)
}

// PeakHours returns per-hour presence coverage.
func (h *ReportsHandler) PeakHours(c *fiber.Ctx) error {
	window := windowFromQuery(c, 7)
	rows, err := h.reports.PeakHours(c.UserContext(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"hours": rows})
}

// RisingStars returns the windowed engagement leaderboard.
func (h *ReportsHandler) RisingStars(c *fiber.Ctx) error {
	window := windowFromQuery(c, 7)
	limit := c.QueryInt("limit", 10)
	rows, err := h.reports.RisingStars(c.UserContext(), window, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": rows})
}

// ChurnRisks returns recently-active members gone silent.
func (h *ReportsHandler) ChurnRisks(c *fiber.Ctx) error {
	now := time.Now().UTC()
	activeDays := c.QueryInt("active_days", 30)
	silentDays := c.QueryInt("silent_days", 7)
	limit := c.QueryInt("limit", 10)

	rows, err := h.reports.ChurnRisks(c.UserContext(), service.LastNDays(activeDays, now), silentDays, limit, now)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": rows})
}

func windowFromQuery(c *fiber.Ctx, defaultDays int) service.Window {
	days := c.QueryInt("days", defaultDays)
	if days <= 0 {
		days = defaultDays
	}
	return service.LastNDays(days, time.Now().UTC())
}
