package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/townloop/backend/internal/models"
	"github.com/townloop/backend/internal/realtime"
)

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) CreateMessage(message *models.Message) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockMessageRepository) GetConversation(userID, peerID uint, page, limit int) ([]models.Message, error) {
	args := m.Called(userID, peerID, page, limit)
	return args.Get(0).([]models.Message), args.Error(1)
}

func newConversationContext(t *testing.T, userID uint, peerID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/messages/"+peerID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("peerId")
	c.SetParamValues(peerID)
	if userID != 0 {
		c.Set("user", &models.JwtCustomClaims{UserID: userID})
	}
	return c, rec
}

func TestGetConversation_ReportsPeerPresence(t *testing.T) {
	messageRepo := new(MockMessageRepository)
	messageRepo.On("GetConversation", uint(1), uint(2), 1, 50).Return([]models.Message{}, nil)

	hub := realtime.NewHub()
	go hub.Run()
	defer hub.Stop()

	peer := realtime.NewClient(hub, nil, 2)
	hub.Register(peer)
	require.Eventually(t, func() bool { return hub.IsOnline(2) }, time.Second, 10*time.Millisecond)

	h := NewMessageHandler(messageRepo, new(MockUserRepository), hub)

	c, rec := newConversationContext(t, 1, "2")
	err := h.GetConversation(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"peer_online":true`)

	hub.Unregister(peer)
	require.Eventually(t, func() bool { return !hub.IsOnline(2) }, time.Second, 10*time.Millisecond)

	c, rec = newConversationContext(t, 1, "2")
	err = h.GetConversation(c)

	assert.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"peer_online":false`)
}

func TestSendMessage_Unauthenticated(t *testing.T) {
	h := NewMessageHandler(new(MockMessageRepository), new(MockUserRepository), nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/messages", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.SendMessage(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
