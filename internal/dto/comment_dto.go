package dto

import (
	"time"

	"github.com/noah-isme/community-portal-api/internal/models"
)

// CommentCreateRequest adds a comment or a reply to a blog.
type CommentCreateRequest struct {
	ParentID *uint  `json:"parent_id"`
	Body     string `json:"body" validate:"required,min=1,max=5000"`
}

// CommentNode is a comment with its nested replies.
type CommentNode struct {
	ID         uint          `json:"id"`
	BlogID     uint          `json:"blog_id"`
	ParentID   *uint         `json:"parent_id,omitempty"`
	AuthorID   uint          `json:"author_id"`
	AuthorName string        `json:"author_name"`
	Body       string        `json:"body"`
	CreatedAt  time.Time     `json:"created_at"`
	Replies    []CommentNode `json:"replies"`
}

// NewCommentNode converts a comment model into a leaf node.
func NewCommentNode(comment models.BlogComment) CommentNode {
	return CommentNode{
		ID:         comment.ID,
		BlogID:     comment.BlogID,
		ParentID:   comment.ParentID,
		AuthorID:   comment.AuthorID,
		AuthorName: comment.AuthorName,
		Body:       comment.Body,
		CreatedAt:  comment.CreatedAt,
		Replies:    []CommentNode{},
	}
}

// CommentTreeResponse is the full comment tree of a blog.
type CommentTreeResponse struct {
	BlogID   uint          `json:"blog_id"`
	Total    int           `json:"total"`
	Comments []CommentNode `json:"comments"`
}
