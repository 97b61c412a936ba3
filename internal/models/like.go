package models

import "gorm.io/gorm"

// Like represents a like on a post. PostID is the MongoDB ObjectID as a string.
type Like struct {
	gorm.Model
	PostID string `json:"post_id" gorm:"index;uniqueIndex:idx_post_user_like"`
	UserID uint   `json:"user_id" gorm:"index;uniqueIndex:idx_post_user_like"`
}

// CreateLikeRequest defines the request body for liking a post
type CreateLikeRequest struct {
	PostID string `json:"post_id" validate:"required"`
}
