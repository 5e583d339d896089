package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/moderation"
	"github.com/noah-isme/community-portal-api/internal/service"
	"github.com/noah-isme/community-portal-api/internal/utils"
)

// AdminModerationHandler exposes the moderation queues and decision endpoints.
type AdminModerationHandler struct {
	decisions service.ModerationService
	queries   service.ModerationQueryService
	summary   service.ModerationSummaryService
	logger    zerolog.Logger
}

// NewAdminModerationHandler constructs the handler. summary may be nil.
func NewAdminModerationHandler(decisions service.ModerationService, queries service.ModerationQueryService, summary service.ModerationSummaryService, logger zerolog.Logger) *AdminModerationHandler {
	return &AdminModerationHandler{
		decisions: decisions,
		queries:   queries,
		summary:   summary,
		logger:    logger.With().Str("component", "admin_moderation_handler").Logger(),
	}
}

// Register binds the moderation routes. Static paths go first so they are not
// captured by :kind.
func (h *AdminModerationHandler) Register(router fiber.Router) {
	if h.summary != nil {
		router.Get("/summary", h.getSummary)
	}
	router.Get("/:kind", h.list)
	router.Get("/:kind/:id/audits", h.audits)
	router.Post("/:kind/:id/approve", h.decide(moderation.ActionApprove))
	router.Post("/:kind/:id/reject", h.decide(moderation.ActionReject))
	router.Post("/:kind/:id/disable", h.decide(moderation.ActionDisable))
	router.Post("/:kind/:id/activate", h.decide(moderation.ActionActivate))
	router.Post("/:kind/:id/reopen", h.decide(moderation.ActionReopen))
	router.Delete("/:kind/:id", h.decide(moderation.ActionRemove))
}

func (h *AdminModerationHandler) list(c *fiber.Ctx) error {
	kind, err := moderation.ParseKind(c.Params("kind"))
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	}

	page, pageSize, err := parsePaging(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.queries.List(requestContext(c), kind, dto.ModerationListRequest{
		Tab:      c.Query("tab"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list moderation queue")
	}

	return utils.OK(c, result.Items, "moderation queue", fiber.Map{
		"pagination":     result.Pagination,
		"counts":         result.Counts,
		"total_pending":  result.TotalPending,
		"total_approved": result.TotalApproved,
		"total_rejected": result.TotalRejected,
	})
}

func (h *AdminModerationHandler) audits(c *fiber.Ctx) error {
	kind, err := moderation.ParseKind(c.Params("kind"))
	if err != nil {
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	audits, err := h.decisions.Audits(requestContext(c), kind, id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load moderation history")
	}
	return utils.SendSuccess(c, "moderation history", audits)
}

func (h *AdminModerationHandler) getSummary(c *fiber.Ctx) error {
	summary, err := h.summary.Summary(requestContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load moderation summary")
	}
	return utils.SendSuccess(c, "moderation summary", summary)
}

func (h *AdminModerationHandler) decide(action moderation.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		kind, err := moderation.ParseKind(c.Params("kind"))
		if err != nil {
			return utils.SendError(c, fiber.StatusNotFound, err.Error())
		}
		id, err := parseUintParam(c, "id")
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}

		var payload dto.ModerationDecisionRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&payload); err != nil {
				return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
			}
		}

		actor := actorFromContext(c)
		if actor.ID == 0 {
			actor.ID = payload.AdminID
		}
		if actor.Name == "" {
			actor.Name = payload.AdminName
		}

		result, err := h.decisions.Transition(requestContext(c), kind, id, action, actor, payload.Reason)
		if err != nil {
			return respondError(c, h.logger, err, "failed to apply moderation decision")
		}

		return utils.SendSuccess(c, result.Item.Kind+" "+action.PastTense(), result)
	}
}
