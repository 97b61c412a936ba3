package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/townloop/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoryRepository defines the interface for story lifecycle operations.
// Story documents live in MongoDB; per-viewer view records live in PostgreSQL.
type StoryRepository interface {
	CreateStory(ctx context.Context, story *models.Story) error
	GetStoryByID(ctx context.Context, id string) (*models.Story, error)
	GetActiveStoriesByAuthor(ctx context.Context, authorID uint) ([]models.Story, error)
	GetActiveStoriesByAuthors(ctx context.Context, authorIDs []uint) ([]models.Story, error)
	DeleteStory(ctx context.Context, id string) error
	MarkViewed(view *models.StoryView) error
	GetViewedStoryIDs(viewerID uint, storyIDs []string) (map[string]bool, error)
}

type storyRepository struct {
	collection *mongo.Collection
	pgDB       *gorm.DB
}

// NewStoryRepository creates a StoryRepository backed by MongoDB and PostgreSQL
func NewStoryRepository(mongoDB *mongo.Database, pgDB *gorm.DB) StoryRepository {
	return &storyRepository{
		collection: mongoDB.Collection("stories"),
		pgDB:       pgDB,
	}
}

// CreateStory stamps creation and expiry times and inserts the document.
// Expiry is fixed at creation; there is no later transition.
func (r *storyRepository) CreateStory(ctx context.Context, story *models.Story) error {
	story.ID = primitive.NewObjectID()
	story.CreatedAt = time.Now()
	story.ExpiresAt = story.CreatedAt.Add(models.StoryTTL)
	_, err := r.collection.InsertOne(ctx, story)
	return err
}

func (r *storyRepository) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid story ID format")
	}
	var story models.Story
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&story); err != nil {
		return nil, err
	}
	return &story, nil
}

// GetActiveStoriesByAuthor returns the author's non-expired stories, oldest
// first. "Active" is evaluated against the clock at query time; expired
// documents are never updated or swept, they just stop matching.
func (r *storyRepository) GetActiveStoriesByAuthor(ctx context.Context, authorID uint) ([]models.Story, error) {
	filter := bson.M{
		"user_id":    authorID,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storyRepository) GetActiveStoriesByAuthors(ctx context.Context, authorIDs []uint) ([]models.Story, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{
		"user_id":    bson.M{"$in": authorIDs},
		"expires_at": bson.M{"$gt": time.Now()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storyRepository) DeleteStory(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid story ID format")
	}
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	return err
}

// MarkViewed upserts a view record. The conflict target is the unique
// (story_id, viewer_id) index, so repeated views never create a second row.
func (r *storyRepository) MarkViewed(view *models.StoryView) error {
	view.ViewedAt = time.Now()
	return r.pgDB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "story_id"}, {Name: "viewer_id"}},
		DoNothing: true,
	}).Create(view).Error
}

// GetViewedStoryIDs returns which of the given stories the viewer has opened
func (r *storyRepository) GetViewedStoryIDs(viewerID uint, storyIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(storyIDs) == 0 {
		return result, nil
	}
	var views []models.StoryView
	err := r.pgDB.Where("viewer_id = ? AND story_id IN ?", viewerID, storyIDs).Find(&views).Error
	if err != nil {
		return nil, err
	}
	for _, v := range views {
		result[v.StoryID] = true
	}
	return result, nil
}
