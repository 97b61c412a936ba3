package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/townloop/backend/internal/models"
	"github.com/townloop/backend/internal/repositories"
	"gorm.io/gorm"
)

type MockFollowRepository struct {
	mock.Mock
}

func (m *MockFollowRepository) CreateFollow(follow *models.Follow) error {
	args := m.Called(follow)
	return args.Error(0)
}

func (m *MockFollowRepository) DeleteFollow(followerID, followingID uint) error {
	args := m.Called(followerID, followingID)
	return args.Error(0)
}

func (m *MockFollowRepository) IsFollowing(followerID, followingID uint) (bool, error) {
	args := m.Called(followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollowRepository) GetFollowers(userID uint) ([]models.User, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockFollowRepository) GetFollowing(userID uint) ([]models.User, error) {
	args := m.Called(userID)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockFollowRepository) GetFollowersCount(userID uint) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFollowRepository) GetFollowingCount(userID uint) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFollowRepository) GetFollowingIDs(userID uint) ([]uint, error) {
	args := m.Called(userID)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockFollowRepository) GetNotFollowing(userID uint, limit int) ([]models.User, error) {
	args := m.Called(userID, limit)
	return args.Get(0).([]models.User), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	args := m.Called(firebaseUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUsersByIDs(ids []uint) ([]models.User, error) {
	args := m.Called(ids)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) SearchUsers(query string) ([]models.User, error) {
	args := m.Called(query)
	return args.Get(0).([]models.User), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateNotification(notification *models.Notification) error {
	args := m.Called(notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) GetByRecipientID(recipientID uint, filter repositories.NotificationFilter, page, limit int) ([]models.Notification, int64, error) {
	args := m.Called(recipientID, filter, page, limit)
	return args.Get(0).([]models.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) GetUnreadCount(recipientID uint) (int64, error) {
	args := m.Called(recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkAsRead(notificationID, recipientID uint) error {
	args := m.Called(notificationID, recipientID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllAsRead(recipientID uint) error {
	args := m.Called(recipientID)
	return args.Error(0)
}

func (m *MockNotificationRepository) DeleteNotification(notificationID, recipientID uint) error {
	args := m.Called(notificationID, recipientID)
	return args.Error(0)
}

type MockCooldown struct {
	mock.Mock
}

func (m *MockCooldown) Allow(ctx context.Context, actorID, targetID uint) (bool, error) {
	args := m.Called(ctx, actorID, targetID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCooldown) Release(ctx context.Context, actorID, targetID uint) error {
	args := m.Called(ctx, actorID, targetID)
	return args.Error(0)
}

func newFollowContext(t *testing.T, method, target string, userID uint, targetParam string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/users/:id/follow")
	c.SetParamNames("id")
	c.SetParamValues(targetParam)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	return c, rec
}

func TestFollowUser_CreatesEdgeAndNotification(t *testing.T) {
	followRepo := new(MockFollowRepository)
	userRepo := new(MockUserRepository)
	notifRepo := new(MockNotificationRepository)
	cooldown := new(MockCooldown)

	cooldown.On("Allow", mock.Anything, uint(1), uint(2)).Return(true, nil)
	followRepo.On("CreateFollow", mock.MatchedBy(func(f *models.Follow) bool {
		return f.FollowerID == 1 && f.FollowingID == 2
	})).Return(nil)
	userRepo.On("GetUserByID", uint(1)).Return(&models.User{ID: 1, Name: "Alma"}, nil)
	notifRepo.On("CreateNotification", mock.MatchedBy(func(n *models.Notification) bool {
		return n.Type == models.NotificationTypeFollow &&
			n.RecipientID == 2 &&
			n.ActorID == 1 &&
			n.ReferenceID == "1"
	})).Return(nil)

	h := NewFollowHandler(followRepo, userRepo, notifRepo, cooldown)
	c, rec := newFollowContext(t, http.MethodPost, "/users/2/follow", 1, "2")

	err := h.FollowUser(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	followRepo.AssertExpectations(t)
	notifRepo.AssertNumberOfCalls(t, "CreateNotification", 1)
}

func TestFollowUser_DuplicateEdgeIsIdempotent(t *testing.T) {
	followRepo := new(MockFollowRepository)
	userRepo := new(MockUserRepository)
	notifRepo := new(MockNotificationRepository)
	cooldown := new(MockCooldown)

	cooldown.On("Allow", mock.Anything, uint(1), uint(2)).Return(true, nil)
	followRepo.On("CreateFollow", mock.Anything).Return(gorm.ErrDuplicatedKey)

	h := NewFollowHandler(followRepo, userRepo, notifRepo, cooldown)
	c, rec := newFollowContext(t, http.MethodPost, "/users/2/follow", 1, "2")

	err := h.FollowUser(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	// The edge already existed, so no second notification is sent
	notifRepo.AssertNotCalled(t, "CreateNotification", mock.Anything)
}

func TestFollowUser_SelfFollowRejected(t *testing.T) {
	h := NewFollowHandler(new(MockFollowRepository), new(MockUserRepository), new(MockNotificationRepository), new(MockCooldown))
	c, _ := newFollowContext(t, http.MethodPost, "/users/1/follow", 1, "1")

	err := h.FollowUser(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestFollowUser_Unauthenticated(t *testing.T) {
	h := NewFollowHandler(new(MockFollowRepository), new(MockUserRepository), new(MockNotificationRepository), new(MockCooldown))
	c, _ := newFollowContext(t, http.MethodPost, "/users/2/follow", 0, "2")

	err := h.FollowUser(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestFollowUser_CooldownRejectsRepeat(t *testing.T) {
	followRepo := new(MockFollowRepository)
	cooldown := new(MockCooldown)
	cooldown.On("Allow", mock.Anything, uint(1), uint(2)).Return(false, nil)

	h := NewFollowHandler(followRepo, new(MockUserRepository), new(MockNotificationRepository), cooldown)
	c, _ := newFollowContext(t, http.MethodPost, "/users/2/follow", 1, "2")

	err := h.FollowUser(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, he.Code)
	followRepo.AssertNotCalled(t, "CreateFollow", mock.Anything)
}

func TestFollowUser_StoreErrorFreesCooldown(t *testing.T) {
	followRepo := new(MockFollowRepository)
	notifRepo := new(MockNotificationRepository)
	cooldown := new(MockCooldown)

	cooldown.On("Allow", mock.Anything, uint(1), uint(2)).Return(true, nil)
	followRepo.On("CreateFollow", mock.Anything).Return(errors.New("connection reset"))
	cooldown.On("Release", mock.Anything, uint(1), uint(2)).Return(nil)

	h := NewFollowHandler(followRepo, new(MockUserRepository), notifRepo, cooldown)
	c, _ := newFollowContext(t, http.MethodPost, "/users/2/follow", 1, "2")

	err := h.FollowUser(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
	// The edge was never written, so the actor can retry immediately
	cooldown.AssertCalled(t, "Release", mock.Anything, uint(1), uint(2))
	notifRepo.AssertNotCalled(t, "CreateNotification", mock.Anything)
}

func TestUnfollowUser_AbsentEdgeIsNoOp(t *testing.T) {
	followRepo := new(MockFollowRepository)
	cooldown := new(MockCooldown)

	cooldown.On("Allow", mock.Anything, uint(1), uint(2)).Return(true, nil)
	followRepo.On("DeleteFollow", uint(1), uint(2)).Return(nil)

	h := NewFollowHandler(followRepo, new(MockUserRepository), new(MockNotificationRepository), cooldown)
	c, rec := newFollowContext(t, http.MethodDelete, "/users/2/follow", 1, "2")

	err := h.UnfollowUser(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	followRepo.AssertExpectations(t)
}
