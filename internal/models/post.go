package models

import (
	"io"
	"time"
)

// Post is a single publication by an author
type Post struct {
	ID         int64     `json:"id" db:"id"`
	Text       string    `json:"text" db:"text"`
	HTML       string    `json:"html" db:"-"`
	PubDate    time.Time `json:"pub_date" db:"pub_date"`
	AuthorID   string    `json:"author_id" db:"author_id"`
	Author     string    `json:"author" db:"author_username"`
	GroupID    *int64    `json:"group_id,omitempty" db:"group_id"`
	GroupSlug  *string   `json:"group_slug,omitempty" db:"group_slug"`
	GroupTitle *string   `json:"group_title,omitempty" db:"group_title"`
	Image      *string   `json:"image,omitempty" db:"image"`
	ImageURL   string    `json:"image_url,omitempty" db:"-"`
}

// Upload is an image attached to a post form
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// NewPostInput is the post form used for both creation and editing
type NewPostInput struct {
	Text       string  `json:"text" form:"text"`
	GroupID    *int64  `json:"group,omitempty" form:"group"`
	Image      *Upload `json:"-"`
	ClearImage bool    `json:"clear_image,omitempty" form:"clear_image"` // edit only: drop the current image
}

// PostView is a single post with its comment thread
type PostView struct {
	Post     *Post      `json:"post"`
	Comments []*Comment `json:"comments"`
}
