package repositories

import (
	"github.com/townloop/backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for direct message persistence
type MessageRepository interface {
	CreateMessage(message *models.Message) error
	GetConversation(userID, peerID uint, page, limit int) ([]models.Message, error)
}

// PostgresMessageRepository implements MessageRepository for PostgreSQL
type PostgresMessageRepository struct {
	db *gorm.DB
}

// NewPostgresMessageRepository creates a new PostgresMessageRepository
func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) CreateMessage(message *models.Message) error {
	return r.db.Create(message).Error
}

// GetConversation returns the message history between two users, newest first
func (r *PostgresMessageRepository) GetConversation(userID, peerID uint, page, limit int) ([]models.Message, error) {
	var messages []models.Message
	offset := (page - 1) * limit
	err := r.db.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userID, peerID, peerID, userID,
	).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error
	return messages, err
}
