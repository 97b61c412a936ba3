package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/townloop/backend/internal/models"
	"github.com/townloop/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
)

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	storyRepository  repositories.StoryRepository
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(storyRepo repositories.StoryRepository, userRepo repositories.UserRepository, followRepo repositories.FollowRepository) *StoryHandler {
	return &StoryHandler{
		storyRepository:  storyRepo,
		userRepository:   userRepo,
		followRepository: followRepo,
	}
}

// RegisterStoryRoutes registers story-related routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.POST("/stories", h.CreateStory)
	g.GET("/stories/circles", h.GetStoryCircles)
	g.GET("/users/:id/stories", h.GetUserStories)
	g.POST("/stories/:id/view", h.MarkAsViewed)
	g.DELETE("/stories/:id", h.DeleteStory)
}

// StoryResponse is the enriched story response
type StoryResponse struct {
	ID        string             `json:"id"`
	Author    models.UserCompact `json:"author"`
	MediaURL  string             `json:"media_url"`
	MediaType string             `json:"media_type"`
	Caption   string             `json:"caption,omitempty"`
	Viewed    bool               `json:"viewed"`
	CreatedAt string             `json:"created_at"`
	ExpiresAt string             `json:"expires_at"`
}

// CreateStory creates a new story authored by the authenticated user.
// Creating a story deliberately fires no notification to followers; they
// discover it through the story circles.
func (h *StoryHandler) CreateStory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateStoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	story := &models.Story{
		UserID:    currentUserID,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
		Caption:   req.Caption,
	}

	if err := h.storyRepository.CreateStory(c.Request().Context(), story); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"story": story}})
}

// GetStoryCircles returns the story tray for the authenticated viewer: every
// followed author, those with active stories first, each annotated with
// whether any active story is still unviewed.
func (h *StoryHandler) GetStoryCircles(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	following, err := h.followRepository.GetFollowing(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	authorIDs := make([]uint, len(following))
	for i := range following {
		authorIDs[i] = following[i].ID
	}

	stories, err := h.storyRepository.GetActiveStoriesByAuthors(c.Request().Context(), authorIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	storiesByAuthor := make(map[uint][]models.Story)
	storyIDs := make([]string, 0, len(stories))
	for _, s := range stories {
		storiesByAuthor[s.UserID] = append(storiesByAuthor[s.UserID], s)
		storyIDs = append(storyIDs, s.ID.Hex())
	}

	viewed, err := h.storyRepository.GetViewedStoryIDs(currentUserID, storyIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Stable partition: authors with active stories first, original order
	// preserved within each group.
	withStories := make([]models.StoryCircle, 0, len(following))
	withoutStories := make([]models.StoryCircle, 0, len(following))
	for _, author := range following {
		authorStories := storiesByAuthor[author.ID]
		circle := models.StoryCircle{
			Author:           author.ToCompact(),
			HasActiveStories: len(authorStories) > 0,
		}
		for _, s := range authorStories {
			if !viewed[s.ID.Hex()] {
				circle.HasUnviewed = true
				break
			}
		}
		if circle.HasActiveStories {
			withStories = append(withStories, circle)
		} else {
			withoutStories = append(withoutStories, circle)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"circles": append(withStories, withoutStories...)},
	})
}

// GetUserStories returns the active stories of one author, with per-story
// viewed flags for the requesting viewer
func (h *StoryHandler) GetUserStories(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	authorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	stories, err := h.storyRepository.GetActiveStoriesByAuthor(c.Request().Context(), uint(authorID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var author models.UserCompact
	if user, err := h.userRepository.GetUserByID(uint(authorID)); err == nil {
		author = user.ToCompact()
	}

	storyIDs := make([]string, len(stories))
	for i, s := range stories {
		storyIDs[i] = s.ID.Hex()
	}
	viewed, _ := h.storyRepository.GetViewedStoryIDs(currentUserID, storyIDs)

	responses := make([]StoryResponse, len(stories))
	for i, s := range stories {
		responses[i] = StoryResponse{
			ID:        s.ID.Hex(),
			Author:    author,
			MediaURL:  s.MediaURL,
			MediaType: s.MediaType,
			Caption:   s.Caption,
			Viewed:    viewed[s.ID.Hex()],
			CreatedAt: s.CreatedAt.Format(time.RFC3339),
			ExpiresAt: s.ExpiresAt.Format(time.RFC3339),
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"stories": responses}})
}

// MarkAsViewed records that the viewer opened a story. The write is an
// idempotent upsert; authors viewing their own story are skipped entirely.
func (h *StoryHandler) MarkAsViewed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	storyID := c.Param("id")

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), storyID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return echo.NewHTTPError(http.StatusNotFound, "Story not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if story.UserID == currentUserID {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"viewed": true}})
	}

	view := &models.StoryView{
		StoryID:  storyID,
		ViewerID: currentUserID,
	}

	if err := h.storyRepository.MarkViewed(view); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"viewed": true}})
}

// DeleteStory removes a story. Only the author may delete; removal takes
// effect immediately regardless of the expiry timestamp.
func (h *StoryHandler) DeleteStory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	storyID := c.Param("id")

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), storyID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return echo.NewHTTPError(http.StatusNotFound, "Story not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if story.UserID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "Only the author can delete this story")
	}

	if err := h.storyRepository.DeleteStory(c.Request().Context(), storyID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"deleted": true}})
}
