package models

import "time"

// Notification types. ReferenceID points at the triggering entity and its
// meaning depends on the type: the follower's user ID for "follow", a post
// ID for "like" and "comment".
const (
	NotificationTypeFollow  = "follow"
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeSystem  = "system"
)

// Notification represents an addressed, typed message with read state (PostgreSQL)
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Type        string    `json:"type" gorm:"size:30;index"`
	ActorID     uint      `json:"actor_id" gorm:"index"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	ReferenceID string    `json:"reference_id"` // follower ID, post ID, etc., depending on Type
	Message     string    `json:"message"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
