package models

import (
	"time"
)

// Comment represents a comment on a post
type Comment struct {
	ID       int64     `json:"id" db:"id"`
	PostID   int64     `json:"post_id" db:"post_id"`
	AuthorID string    `json:"author_id" db:"author_id"`
	Author   string    `json:"author" db:"author_username"`
	Text     string    `json:"text" db:"text"`
	HTML     string    `json:"html" db:"-"`
	Created  time.Time `json:"created" db:"created"`
}

// CommentInput is the comment form
type CommentInput struct {
	Text string `json:"text" form:"text"`
}
