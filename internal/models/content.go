package models

import "time"

// Blog is a community blog post written by a member.
type Blog struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	AuthorID   uint   `gorm:"not null;index" json:"author_id"`
	AuthorName string `gorm:"size:128" json:"author_name"`
	Title      string `gorm:"size:255;not null" json:"title"`
	Slug       string `gorm:"size:300;uniqueIndex" json:"slug"`
	Body       string `gorm:"type:text" json:"body"`
	Category   string `gorm:"size:64;index" json:"category"`

	ModerationState `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BlogComment is a node in a blog's comment tree.
type BlogComment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	BlogID     uint      `gorm:"not null;index" json:"blog_id"`
	ParentID   *uint     `gorm:"index" json:"parent_id,omitempty"`
	AuthorID   uint      `gorm:"not null" json:"author_id"`
	AuthorName string    `gorm:"size:128" json:"author_name"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Achievement is a community member achievement curated by admins.
type Achievement struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OwnerID     uint   `gorm:"index" json:"owner_id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Year        int    `gorm:"index" json:"year"`

	ModerationState `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CoachingCenter is an education directory listing awaiting or holding approval.
type CoachingCenter struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	OwnerID      uint   `gorm:"not null;index" json:"owner_id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	City         string `gorm:"size:128;index" json:"city"`
	Subjects     string `gorm:"size:512" json:"subjects"`
	ContactEmail string `gorm:"size:255" json:"contact_email"`

	ModerationState `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserAccount is a portal registration that admins vote on.
type UserAccount struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	FullName string `gorm:"size:255;not null" json:"full_name"`
	Email    string `gorm:"size:255;uniqueIndex" json:"email"`
	Phone    string `gorm:"size:32" json:"phone"`
	Gender   string `gorm:"size:16" json:"gender"`
	City     string `gorm:"size:128" json:"city"`

	ModerationState `gorm:"embedded"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
