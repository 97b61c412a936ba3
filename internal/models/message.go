package models

import "time"

// Message represents a direct message between two users (PostgreSQL).
// Delivery to connected recipients happens over the realtime hub; the row
// is the durable record either way.
type Message struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SenderID   uint      `json:"sender_id" gorm:"index:idx_conversation"`
	ReceiverID uint      `json:"receiver_id" gorm:"index:idx_conversation"`
	Content    string    `json:"content" gorm:"size:2000"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}

// SendMessageRequest defines the request body for sending a direct message
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required,min=1,max=2000"`
}
