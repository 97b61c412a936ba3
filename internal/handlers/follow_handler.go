package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/townloop/backend/internal/models"
	"github.com/townloop/backend/internal/ratelimit"
	"github.com/townloop/backend/internal/repositories"
	"gorm.io/gorm"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository       repositories.FollowRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	cooldown               ratelimit.Cooldown
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository, cooldown ratelimit.Cooldown) *FollowHandler {
	return &FollowHandler{
		followRepository:       followRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		cooldown:               cooldown,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/users/:id/follow-stats", h.GetFollowStats)
	g.GET("/users/suggestions", h.GetSuggestions)
}

// FollowUser follows a user. The operation is idempotent: a duplicate edge
// is reported as success and fires no second notification.
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if currentUserID == uint(targetID) {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	if h.cooldown != nil {
		allowed, err := h.cooldown.Allow(c.Request().Context(), currentUserID, uint(targetID))
		if err == nil && !allowed {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Please wait before acting on this user again")
		}
		// A cooldown backend failure never blocks the follow itself
	}

	follow := &models.Follow{
		FollowerID:  currentUserID,
		FollowingID: uint(targetID),
	}

	// Compare-and-insert: the unique index arbitrates concurrent attempts,
	// and the loser's duplicate-key error means the desired state already
	// holds, so it is reported as success.
	if err := h.followRepository.CreateFollow(follow); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
		}
		// The edge was not written, so hand the cooldown slot back
		if h.cooldown != nil {
			h.cooldown.Release(c.Request().Context(), currentUserID, uint(targetID))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Exactly one "follow" notification per new edge. The insert is not
	// transactional with the edge; a failure here leaves the follow in
	// place without a notification.
	if h.notificationRepository != nil {
		actor, err := h.userRepository.GetUserByID(currentUserID)
		if err == nil {
			notif := &models.Notification{
				Type:        models.NotificationTypeFollow,
				ActorID:     currentUserID,
				RecipientID: uint(targetID),
				ReferenceID: strconv.FormatUint(uint64(currentUserID), 10),
				Message:     actor.Name + " started following you",
			}
			h.notificationRepository.CreateNotification(notif)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowUser unfollows a user. Removing an absent edge is a no-op success.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if h.cooldown != nil {
		allowed, err := h.cooldown.Allow(c.Request().Context(), currentUserID, uint(targetID))
		if err == nil && !allowed {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Please wait before acting on this user again")
		}
	}

	if err := h.followRepository.DeleteFollow(currentUserID, uint(targetID)); err != nil {
		if h.cooldown != nil {
			h.cooldown.Release(c.Request().Context(), currentUserID, uint(targetID))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}

// GetFollowers lists the users following the given user
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	users, err := h.followRepository.GetFollowers(uint(userID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": toCompactList(users)}})
}

// GetFollowing lists the users the given user follows
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	users, err := h.followRepository.GetFollowing(uint(userID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": toCompactList(users)}})
}

// GetFollowStats returns follower/following counts for a user, plus whether
// the authenticated viewer follows them
func (h *FollowHandler) GetFollowStats(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	followers, err := h.followRepository.GetFollowersCount(uint(userID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	following, err := h.followRepository.GetFollowingCount(uint(userID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	isFollowing := false
	if currentUserID := getUserIDFromContext(c); currentUserID != 0 && currentUserID != uint(userID) {
		isFollowing, _ = h.followRepository.IsFollowing(currentUserID, uint(userID))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"followers_count": followers,
			"following_count": following,
			"is_following":    isFollowing,
		},
	})
}

// GetSuggestions returns users the authenticated user does not follow yet
func (h *FollowHandler) GetSuggestions(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	users, err := h.followRepository.GetNotFollowing(currentUserID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"users": toCompactList(users)}})
}

func toCompactList(users []models.User) []models.UserCompact {
	compact := make([]models.UserCompact, len(users))
	for i := range users {
		compact[i] = users[i].ToCompact()
	}
	return compact
}
