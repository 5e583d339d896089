package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/community-portal-api/internal/dto"
	"github.com/noah-isme/community-portal-api/internal/models"
	"github.com/noah-isme/community-portal-api/internal/moderation"
	"github.com/noah-isme/community-portal-api/internal/repository"
)

// CommentService manages threaded comments on published blogs.
type CommentService interface {
	Create(ctx context.Context, blogID uint, author Actor, payload dto.CommentCreateRequest) (dto.CommentNode, error)
	Tree(ctx context.Context, blogID uint) (dto.CommentTreeResponse, error)
}

type commentService struct {
	blogs         repository.ContentRepository
	comments      repository.CommentRepository
	notifications NotificationPublisher
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// NewCommentService constructs the comment service. notifications may be nil.
func NewCommentService(blogs repository.ContentRepository, comments repository.CommentRepository, notifications NotificationPublisher, validate *validator.Validate, logger zerolog.Logger) CommentService {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("br")

	return &commentService{
		blogs:         blogs,
		comments:      comments,
		notifications: notifications,
		validator:     validate,
		sanitizer:     policy,
		logger:        logger.With().Str("component", "comment_service").Logger(),
		tracer:        otel.Tracer("github.com/noah-isme/community-portal-api/internal/service/comment"),
	}
}

func (s *commentService) Create(ctx context.Context, blogID uint, author Actor, payload dto.CommentCreateRequest) (dto.CommentNode, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentNode{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		return dto.CommentNode{}, ErrContentEmpty
	}

	spanCtx, span := s.tracer.Start(ctx, "comments.create", trace.WithAttributes(
		attribute.Int64("comment.blog_id", int64(blogID)),
		attribute.Int64("comment.author_id", int64(author.ID)),
	))
	defer span.End()

	blog, err := s.blogs.GetBlog(spanCtx, blogID)
	if err != nil {
		return dto.CommentNode{}, storeError(err, ErrCommentBlogUnavailable)
	}
	if moderation.Status(blog.Status) != moderation.StatusApproved {
		return dto.CommentNode{}, ErrCommentBlogUnavailable
	}

	var parent *models.BlogComment
	if payload.ParentID != nil {
		found, err := s.comments.GetByID(spanCtx, *payload.ParentID)
		if err != nil {
			return dto.CommentNode{}, storeError(err, ErrCommentParentMismatch)
		}
		if found.BlogID != blogID {
			return dto.CommentNode{}, ErrCommentParentMismatch
		}
		parent = &found
	}

	comment := models.BlogComment{
		BlogID:     blogID,
		ParentID:   payload.ParentID,
		AuthorID:   author.ID,
		AuthorName: strings.TrimSpace(author.Name),
		Body:       body,
	}
	if err := s.comments.Create(spanCtx, &comment); err != nil {
		span.RecordError(err)
		return dto.CommentNode{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.notifyParticipants(spanCtx, blog, parent, author)

	return dto.NewCommentNode(comment), nil
}

func (s *commentService) notifyParticipants(ctx context.Context, blog models.Blog, parent *models.BlogComment, author Actor) {
	if s.notifications == nil {
		return
	}

	recipients := map[uint]string{}
	if blog.AuthorID != author.ID {
		recipients[blog.AuthorID] = fmt.Sprintf("New comment on your blog %s.", blog.Title)
	}
	if parent != nil && parent.AuthorID != author.ID {
		recipients[parent.AuthorID] = fmt.Sprintf("New reply to your comment on %s.", blog.Title)
	}

	for userID, message := range recipients {
		if _, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  strconv.FormatUint(uint64(userID), 10),
			Type:    "blog_comment",
			Message: message,
		}); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", userID).Msg("failed to publish comment notification")
		}
	}
}

func (s *commentService) Tree(ctx context.Context, blogID uint) (dto.CommentTreeResponse, error) {
	blog, err := s.blogs.GetBlog(ctx, blogID)
	if err != nil {
		return dto.CommentTreeResponse{}, storeError(err, ErrContentNotFound)
	}
	if moderation.Status(blog.Status) != moderation.StatusApproved {
		return dto.CommentTreeResponse{}, ErrContentNotFound
	}

	comments, err := s.comments.ListByBlog(ctx, blogID)
	if err != nil {
		return dto.CommentTreeResponse{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return dto.CommentTreeResponse{
		BlogID:   blogID,
		Total:    len(comments),
		Comments: buildCommentTree(comments),
	}, nil
}

// buildCommentTree nests rows already sorted oldest first. Rows whose parent
// is missing become roots, and roots keep the row order.
func buildCommentTree(comments []models.BlogComment) []dto.CommentNode {
	present := make(map[uint]struct{}, len(comments))
	for _, comment := range comments {
		present[comment.ID] = struct{}{}
	}

	children := make(map[uint][]models.BlogComment)
	roots := make([]models.BlogComment, 0)
	for _, comment := range comments {
		if comment.ParentID != nil && *comment.ParentID != comment.ID {
			if _, ok := present[*comment.ParentID]; ok {
				children[*comment.ParentID] = append(children[*comment.ParentID], comment)
				continue
			}
		}
		roots = append(roots, comment)
	}

	var build func(comment models.BlogComment, seen map[uint]struct{}) dto.CommentNode
	build = func(comment models.BlogComment, seen map[uint]struct{}) dto.CommentNode {
		node := dto.NewCommentNode(comment)
		seen[comment.ID] = struct{}{}
		for _, child := range children[comment.ID] {
			if _, loop := seen[child.ID]; loop {
				continue
			}
			node.Replies = append(node.Replies, build(child, seen))
		}
		return node
	}

	seen := make(map[uint]struct{}, len(comments))
	built := make(map[uint]dto.CommentNode, len(roots))
	for _, root := range roots {
		built[root.ID] = build(root, seen)
	}
	// Rows in a parent cycle are unreachable from any root; the oldest row of
	// each cycle is promoted so every comment appears exactly once.
	for _, comment := range comments {
		if _, ok := seen[comment.ID]; !ok {
			built[comment.ID] = build(comment, seen)
		}
	}

	tree := make([]dto.CommentNode, 0, len(built))
	for _, comment := range comments {
		if node, ok := built[comment.ID]; ok {
			tree = append(tree, node)
		}
	}
	return tree
}
