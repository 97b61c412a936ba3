package models

import "gorm.io/gorm"

// Comment represents a comment on a post. PostID is the MongoDB ObjectID as a string.
type Comment struct {
	gorm.Model
	PostID  string `json:"post_id" gorm:"index"`
	UserID  uint   `json:"user_id" gorm:"index"`
	Content string `json:"content"`
}

// CreateCommentRequest defines the request body for creating a new comment
type CreateCommentRequest struct {
	PostID  string `json:"post_id" validate:"required"`
	Content string `json:"content" validate:"required,min=1,max=500"`
}
