package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/service"
	"github.com/noah-isme/community-portal-api/internal/utils"
)

// AdHandler exposes ad placement and booking administration.
type AdHandler struct {
	service service.AdBookingService
	logger  zerolog.Logger
}

// NewAdHandler constructs the handler.
func NewAdHandler(service service.AdBookingService, logger zerolog.Logger) *AdHandler {
	return &AdHandler{
		service: service,
		logger:  logger.With().Str("component", "ad_handler").Logger(),
	}
}

// Register binds ad routes under the admin group.
func (h *AdHandler) Register(router fiber.Router) {
	router.Get("/placements", h.listPlacements)
	router.Post("/placements", h.createPlacement)
	router.Get("/placements/:id/bookings", h.bookings)
	router.Post("/placements/:id/bookings", h.book)
	router.Delete("/bookings/:id", h.cancel)
}

func (h *AdHandler) listPlacements(c *fiber.Ctx) error {
	placements, err := h.service.ListPlacements(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list ad placements")
	}
	return utils.SendSuccess(c, "ad placements", placements)
}

func (h *AdHandler) createPlacement(c *fiber.Ctx) error {
	var payload dto.AdPlacementCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	placement, err := h.service.CreatePlacement(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create ad placement")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "ad placement created", placement)
}

func (h *AdHandler) bookings(c *fiber.Ctx) error {
	placementID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	bookings, err := h.service.BookedRanges(requestContext(c), placementID, c.Query("from"), c.Query("to"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list ad bookings")
	}
	return utils.SendSuccess(c, "ad bookings", bookings)
}

func (h *AdHandler) book(c *fiber.Ctx) error {
	placementID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AdBookingCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	booking, err := h.service.Book(requestContext(c), placementID, actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to book ad placement")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "ad booked", booking)
}

func (h *AdHandler) cancel(c *fiber.Ctx) error {
	bookingID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	booking, err := h.service.Cancel(requestContext(c), bookingID, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to cancel ad booking")
	}
	return utils.SendSuccess(c, "ad booking cancelled", booking)
}
