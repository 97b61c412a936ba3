package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/townloop/backend/internal/models"
	"github.com/townloop/backend/internal/repositories"
)

// FeedHandler assembles the home feed from the viewer's following set
type FeedHandler struct {
	postRepository   repositories.PostRepository
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	likeRepository   repositories.LikeRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, followRepo repositories.FollowRepository, likeRepo repositories.LikeRepository) *FeedHandler {
	return &FeedHandler{
		postRepository:   postRepo,
		userRepository:   userRepo,
		followRepository: followRepo,
		likeRepository:   likeRepo,
	}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// FeedPost is a post enriched with author info and the viewer's like state
type FeedPost struct {
	models.Post
	Author models.UserCompact `json:"author"`
	Liked  bool               `json:"liked"`
}

// GetFeed returns posts by the viewer and the users they follow, newest first
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	followingIDs, err := h.followRepository.GetFollowingIDs(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	authorIDs := append(followingIDs, currentUserID)

	skip, limit := paging(c)
	posts, err := h.postRepository.GetPostsByUserIDs(c.Request().Context(), authorIDs, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// One batched lookup covers every distinct author on the page
	seen := make(map[uint]bool)
	pageAuthorIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		if !seen[p.UserID] {
			seen[p.UserID] = true
			pageAuthorIDs = append(pageAuthorIDs, p.UserID)
		}
	}

	authors := make(map[uint]models.UserCompact, len(pageAuthorIDs))
	if users, err := h.userRepository.GetUsersByIDs(pageAuthorIDs); err == nil {
		for _, u := range users {
			authors[u.ID] = u.ToCompact()
		}
	}

	feed := make([]FeedPost, len(posts))
	for i, p := range posts {
		feed[i] = FeedPost{Post: p, Author: authors[p.UserID]}

		liked, _ := h.likeRepository.HasLiked(p.ID.Hex(), currentUserID)
		feed[i].Liked = liked
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"posts": feed}})
}
