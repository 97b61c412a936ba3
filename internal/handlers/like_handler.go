package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/townloop/backend/internal/models"
	"github.com/townloop/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// LikeHandler handles post like/unlike HTTP requests
type LikeHandler struct {
	likeRepository         repositories.LikeRepository
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository) *LikeHandler {
	return &LikeHandler{
		likeRepository:         likeRepo,
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.LikePost)
	g.DELETE("/posts/:id/like", h.UnlikePost)
}

// LikePost likes a post. Liking twice is reported as success without a
// second row or a second notification.
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID := c.Param("id")
	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	like := &models.Like{
		PostID: postID,
		UserID: currentUserID,
	}

	if err := h.likeRepository.CreateLike(like); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return h.likeResponse(c, postID, true)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.postRepository.IncrementLikesCount(c.Request().Context(), postID, 1)

	if h.notificationRepository != nil && post.UserID != currentUserID {
		actor, err := h.userRepository.GetUserByID(currentUserID)
		if err == nil {
			notif := &models.Notification{
				Type:        models.NotificationTypeLike,
				ActorID:     currentUserID,
				RecipientID: post.UserID,
				ReferenceID: postID,
				Message:     actor.Name + " liked your post",
			}
			h.notificationRepository.CreateNotification(notif)
		}
	}

	return h.likeResponse(c, postID, true)
}

// UnlikePost removes a like. Unliking a post that was never liked is a no-op.
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	postID := c.Param("id")

	removed, err := h.likeRepository.DeleteLike(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if removed {
		h.postRepository.IncrementLikesCount(c.Request().Context(), postID, -1)
	}

	return h.likeResponse(c, postID, false)
}

// likeResponse reports the viewer's like state with the authoritative count.
// The count comes from the like rows, not the denormalized counter on the
// post document.
func (h *LikeHandler) likeResponse(c echo.Context, postID string, liked bool) error {
	count, _ := h.likeRepository.GetLikesCount(postID)
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"liked": liked, "likes_count": count},
	})
}
