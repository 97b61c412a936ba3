package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoryTTL is how long a story stays visible after creation. Expiry is
// stamped once at creation and checked at query time; expired rows are not
// swept, they simply stop matching the active filter.
const StoryTTL = 24 * time.Hour

// Story represents a time-bounded media item stored in MongoDB
type Story struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    uint               `json:"user_id" bson:"user_id"`
	MediaURL  string             `json:"media_url" bson:"media_url"`
	MediaType string             `json:"media_type" bson:"media_type"` // "image" or "video"
	Caption   string             `json:"caption,omitempty" bson:"caption,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time          `json:"expires_at" bson:"expires_at"`
}

// Active reports whether the story is still visible at the given instant
func (s *Story) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// StoryView marks that a viewer has opened a story (PostgreSQL).
// At most one row exists per (story, viewer).
type StoryView struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	StoryID  string    `json:"story_id" gorm:"index;uniqueIndex:idx_story_viewer"`
	ViewerID uint      `json:"viewer_id" gorm:"index;uniqueIndex:idx_story_viewer"`
	ViewedAt time.Time `json:"viewed_at"`
}

// CreateStoryRequest defines the request body for creating a story
type CreateStoryRequest struct {
	MediaURL  string `json:"media_url" validate:"required,url"`
	MediaType string `json:"media_type" validate:"required,oneof=image video"`
	Caption   string `json:"caption,omitempty" validate:"omitempty,max=500"`
}

// StoryCircle is one entry in the story tray: an author the viewer follows,
// annotated with whether they currently have active stories and whether any
// of those are still unviewed.
type StoryCircle struct {
	Author           UserCompact `json:"author"`
	HasActiveStories bool        `json:"has_active_stories"`
	HasUnviewed      bool        `json:"has_unviewed"`
}
