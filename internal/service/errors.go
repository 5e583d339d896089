package service

import (
	"errors"

	"github.com/noah-isme/community-portal-api/internal/moderation"
)

var (
	// ErrModerationNotFound indicates the moderated entity does not exist.
	ErrModerationNotFound = errors.New("moderation target not found")
	// ErrInvalidTransition indicates the action is not legal from the entity's current status.
	ErrInvalidTransition = moderation.ErrInvalidTransition
	// ErrUnknownKind indicates the route names an entity type without a moderation policy.
	ErrUnknownKind = moderation.ErrUnknownKind
	// ErrReasonRequired indicates the action needs a non-empty reason.
	ErrReasonRequired = errors.New("reason is required for this action")
	// ErrActorRequired indicates a decision was attempted without an acting admin.
	ErrActorRequired = errors.New("acting admin is required")
	// ErrModerationConflict indicates concurrent writers kept winning the version check.
	ErrModerationConflict = errors.New("entity was modified by another moderator, reload and retry")
	// ErrModerationForbidden indicates the caller may not perform the transition on this entity.
	ErrModerationForbidden = errors.New("not allowed to moderate this entity")
	// ErrInvalidStatusFilter indicates the list tab is neither "all" nor a status of the kind.
	ErrInvalidStatusFilter = errors.New("invalid status filter")
	// ErrPersistence wraps store failures that are not domain errors.
	ErrPersistence = errors.New("persistence failure")
)

var (
	// ErrContentNotFound indicates the blog or listing does not exist.
	ErrContentNotFound = errors.New("content not found")
	// ErrContentForbidden indicates the caller does not own the content.
	ErrContentForbidden = errors.New("only the author may edit this content")
	// ErrContentLocked indicates the content already received a moderation decision.
	ErrContentLocked = errors.New("content can no longer be edited")
	// ErrContentEmpty indicates the body is empty once sanitized.
	ErrContentEmpty = errors.New("content empty after sanitization")
	// ErrAccountExists indicates the email is already registered.
	ErrAccountExists = errors.New("an account with this email already exists")
)

var (
	// ErrCommentBlogUnavailable indicates the blog is missing or not published.
	ErrCommentBlogUnavailable = errors.New("blog is not open for comments")
	// ErrCommentParentMismatch indicates the parent comment belongs to another blog.
	ErrCommentParentMismatch = errors.New("parent comment does not belong to this blog")
)

var (
	// ErrPlacementNotFound indicates the ad placement does not exist.
	ErrPlacementNotFound = errors.New("ad placement not found")
	// ErrBookingNotFound indicates the ad booking does not exist.
	ErrBookingNotFound = errors.New("ad booking not found")
	// ErrInvalidBookingRange indicates malformed or reversed booking dates.
	ErrInvalidBookingRange = errors.New("booking must end on or after its start day")
	// ErrBookingConflict indicates an active booking overlaps the requested days.
	ErrBookingConflict = errors.New("placement already booked for these days")
)

// ErrNotificationNotFound indicates the notification does not exist for the user.
var ErrNotificationNotFound = errors.New("notification not found")
