package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/townloop/backend/internal/models"
	"github.com/townloop/backend/internal/repositories"
)

func newNotifContext(t *testing.T, method, target string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	return c, rec
}

func TestGetNotifications_UnreadFilterIsForwarded(t *testing.T) {
	notifRepo := new(MockNotificationRepository)
	userRepo := new(MockUserRepository)

	notifRepo.On("GetByRecipientID", uint(1), repositories.NotificationFilter{UnreadOnly: true}, 1, 20).
		Return([]models.Notification{}, int64(0), nil)

	h := NewNotificationHandler(notifRepo, userRepo)
	c, rec := newNotifContext(t, http.MethodGet, "/notifications?filter=unread", 1)

	err := h.GetNotifications(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	notifRepo.AssertExpectations(t)
}

func TestGetNotifications_TypeFilterIsForwarded(t *testing.T) {
	notifRepo := new(MockNotificationRepository)

	notifRepo.On("GetByRecipientID", uint(1), repositories.NotificationFilter{Type: models.NotificationTypeFollow}, 1, 20).
		Return([]models.Notification{}, int64(0), nil)

	h := NewNotificationHandler(notifRepo, new(MockUserRepository))
	c, rec := newNotifContext(t, http.MethodGet, "/notifications?type=follow", 1)

	err := h.GetNotifications(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	notifRepo.AssertExpectations(t)
}

func TestGetNotifications_ActorLookupIsBatched(t *testing.T) {
	notifRepo := new(MockNotificationRepository)
	userRepo := new(MockUserRepository)

	notifications := []models.Notification{
		{ID: 1, Type: models.NotificationTypeFollow, ActorID: 5, RecipientID: 1},
		{ID: 2, Type: models.NotificationTypeLike, ActorID: 5, RecipientID: 1},
		{ID: 3, Type: models.NotificationTypeFollow, ActorID: 6, RecipientID: 1},
	}
	notifRepo.On("GetByRecipientID", uint(1), repositories.NotificationFilter{}, 1, 20).
		Return(notifications, int64(3), nil)
	userRepo.On("GetUsersByIDs", []uint{5, 6}).
		Return([]models.User{{ID: 5, Name: "Edo"}, {ID: 6, Name: "Fia"}}, nil)

	h := NewNotificationHandler(notifRepo, userRepo)
	c, rec := newNotifContext(t, http.MethodGet, "/notifications", 1)

	err := h.GetNotifications(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	// Three notifications from two actors cost a single user query
	userRepo.AssertNumberOfCalls(t, "GetUsersByIDs", 1)
	userRepo.AssertNotCalled(t, "GetUserByID", mock.Anything)
	assert.Contains(t, rec.Body.String(), "Edo")
	assert.Contains(t, rec.Body.String(), "Fia")
}

func TestGetUnreadCount(t *testing.T) {
	notifRepo := new(MockNotificationRepository)
	notifRepo.On("GetUnreadCount", uint(1)).Return(int64(3), nil)

	h := NewNotificationHandler(notifRepo, new(MockUserRepository))
	c, rec := newNotifContext(t, http.MethodGet, "/notifications/unread-count", 1)

	err := h.GetUnreadCount(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":3`)
}

func TestMarkAllAsRead_SecondCallIsNoOp(t *testing.T) {
	notifRepo := new(MockNotificationRepository)
	notifRepo.On("MarkAllAsRead", uint(1)).Return(nil).Twice()

	h := NewNotificationHandler(notifRepo, new(MockUserRepository))

	for i := 0; i < 2; i++ {
		c, rec := newNotifContext(t, http.MethodPut, "/notifications/read-all", 1)
		err := h.MarkAllAsRead(c)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	notifRepo.AssertExpectations(t)
}

func TestMarkAsRead_InvalidID(t *testing.T) {
	h := NewNotificationHandler(new(MockNotificationRepository), new(MockUserRepository))
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/notifications/abc/read", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	c.Set("user", &models.JwtCustomClaims{UserID: 1})

	err := h.MarkAsRead(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestNotificationHandlers_RequireAuthentication(t *testing.T) {
	h := NewNotificationHandler(new(MockNotificationRepository), new(MockUserRepository))

	tests := []struct {
		name string
		call func(echo.Context) error
	}{
		{"list", h.GetNotifications},
		{"unread count", h.GetUnreadCount},
		{"mark all read", h.MarkAllAsRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newNotifContext(t, http.MethodGet, "/notifications", 0)
			err := tt.call(c)
			he, ok := err.(*echo.HTTPError)
			assert.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		})
	}
}
