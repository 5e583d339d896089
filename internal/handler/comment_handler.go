package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/middleware"
	"github.com/noah-isme/community-portal-api/internal/service"
	"github.com/noah-isme/community-portal-api/internal/utils"
)

// CommentHandler serves threaded blog comments.
type CommentHandler struct {
	service service.CommentService
	logger  zerolog.Logger
}

// NewCommentHandler constructs the handler.
func NewCommentHandler(service service.CommentService, logger zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		logger:  logger.With().Str("component", "comment_handler").Logger(),
	}
}

// Register binds routes relative to a group mounted at /blogs/:id/comments.
func (h *CommentHandler) Register(router fiber.Router, auth fiber.Handler) {
	if auth == nil {
		auth = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Get("", h.tree)
	router.Post("", auth, middleware.WithAuth(h.create, middleware.AuthOptions{Role: middleware.AuthRoleMember}))
}

func (h *CommentHandler) tree(c *fiber.Ctx) error {
	blogID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	tree, err := h.service.Tree(requestContext(c), blogID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load comments")
	}
	return utils.SendSuccess(c, "comments", tree)
}

func (h *CommentHandler) create(c *fiber.Ctx) error {
	blogID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CommentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	comment, err := h.service.Create(requestContext(c), blogID, actorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to post comment")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "comment posted", comment)
}
