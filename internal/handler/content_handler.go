package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/middleware"
	"github.com/noah-isme/community-portal-api/internal/moderation"
	"github.com/noah-isme/community-portal-api/internal/service"
	"github.com/noah-isme/community-portal-api/internal/utils"
)

// ContentHandler exposes member-facing authoring endpoints.
type ContentHandler struct {
	content    service.ContentService
	moderation service.ModerationService
	logger     zerolog.Logger
}

// NewContentHandler constructs the handler.
func NewContentHandler(content service.ContentService, moderation service.ModerationService, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		content:    content,
		moderation: moderation,
		logger:     logger.With().Str("component", "content_handler").Logger(),
	}
}

// Register binds the content routes. auth guards every write; reads and
// account registration stay public.
func (h *ContentHandler) Register(router fiber.Router, auth fiber.Handler) {
	if auth == nil {
		auth = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Get("/blogs", h.listBlogs)
	router.Post("/blogs", auth, middleware.WithAuth(h.createBlog, middleware.AuthOptions{Role: middleware.AuthRoleMember}))
	router.Put("/blogs/:id", auth, middleware.WithAuth(h.updateBlog, middleware.AuthOptions{Role: middleware.AuthRoleMember}))
	router.Post("/blogs/:id/submit", auth, middleware.WithAuth(h.submitBlog, middleware.AuthOptions{Role: middleware.AuthRoleMember}))
	router.Post("/achievements", auth, middleware.WithAuth(h.createAchievement, middleware.AuthOptions{Role: middleware.AuthRoleAdmin}))
	router.Post("/coaching-centers", auth, middleware.WithAuth(h.registerCoachingCenter, middleware.AuthOptions{Role: middleware.AuthRoleMember}))
	router.Post("/accounts/register", h.registerAccount)
}

func (h *ContentHandler) listBlogs(c *fiber.Ctx) error {
	page, pageSize, err := parsePaging(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.content.ListPublishedBlogs(requestContext(c), page, pageSize)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list blogs")
	}
	return utils.OK(c, result.Items, "blogs", fiber.Map{
		"pagination": result.Pagination,
		"cache_hit":  result.CacheHit,
	})
}

func (h *ContentHandler) createBlog(c *fiber.Ctx) error {
	var payload dto.BlogCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	blog, err := h.content.CreateBlog(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create blog")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "blog created", blog)
}

func (h *ContentHandler) updateBlog(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.BlogUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	blog, err := h.content.UpdateBlog(requestContext(c), id, actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update blog")
	}
	return utils.SendSuccess(c, "blog updated", blog)
}

func (h *ContentHandler) submitBlog(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.moderation.Submit(requestContext(c), moderation.KindBlog, id, actorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to submit blog")
	}
	return utils.SendSuccess(c, "blog submitted for review", result)
}

func (h *ContentHandler) createAchievement(c *fiber.Ctx) error {
	var payload dto.AchievementCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	achievement, err := h.content.CreateAchievement(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create achievement")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "achievement created", achievement)
}

func (h *ContentHandler) registerCoachingCenter(c *fiber.Ctx) error {
	var payload dto.CoachingCenterCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	center, err := h.content.RegisterCoachingCenter(requestContext(c), actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register coaching center")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "coaching center submitted for review", center)
}

func (h *ContentHandler) registerAccount(c *fiber.Ctx) error {
	var payload dto.AccountRegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	account, err := h.content.RegisterAccount(requestContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register account")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account pending approval", account)
}
