package models

import "time"

// Follow represents a directed follow edge between two users.
// The composite unique index is the store-level guarantee that at most one
// edge exists per (follower, following) pair; concurrent follow attempts
// race to insert and the loser surfaces a duplicate-key error.
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_following"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follower_following"`
	CreatedAt   time.Time `json:"created_at"`
}
