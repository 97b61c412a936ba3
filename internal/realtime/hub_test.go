package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSocketPair returns both ends of a live websocket connection: the
// server-side conn the hub would own and the peer conn a browser would hold.
func newSocketPair(t *testing.T) (server *websocket.Conn, peer *websocket.Conn) {
	t.Helper()

	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var up websocket.Upgrader
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		connCh <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	return <-connCh, peer
}

// Deliveries race with each other and with the write pump; every frame must
// still arrive intact because the pump is the connection's only writer.
func TestSendToUser_ConcurrentDeliveriesStaySerialized(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	serverConn, peer := newSocketPair(t)
	client := NewClient(hub, serverConn, 7)
	hub.Register(client)
	go client.WritePump()

	require.Eventually(t, func() bool { return hub.IsOnline(7) }, time.Second, 10*time.Millisecond)

	const senders = 5
	const perSender = 20

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				hub.SendToUser(7, []byte("payload"))
			}
		}()
	}
	wg.Wait()

	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < senders*perSender; i++ {
		_, msg, err := peer.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "payload", string(msg))
	}

	hub.Unregister(client)
	require.Eventually(t, func() bool { return !hub.IsOnline(7) }, time.Second, 10*time.Millisecond)
}

func TestSendToUser_FansOutToEveryConnection(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	serverA, peerA := newSocketPair(t)
	serverB, peerB := newSocketPair(t)

	clientA := NewClient(hub, serverA, 3)
	clientB := NewClient(hub, serverB, 3)
	hub.Register(clientA)
	hub.Register(clientB)
	go clientA.WritePump()
	go clientB.WritePump()

	require.Eventually(t, func() bool { return hub.IsOnline(3) }, time.Second, 10*time.Millisecond)

	assert.True(t, hub.SendToUser(3, []byte("hello")))

	for _, peer := range []*websocket.Conn{peerA, peerB} {
		peer.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := peer.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, "hello", string(msg))
	}

	hub.Unregister(clientA)
	hub.Unregister(clientB)
	require.Eventually(t, func() bool { return !hub.IsOnline(3) }, time.Second, 10*time.Millisecond)
}

func TestSendToUser_OfflineRecipient(t *testing.T) {
	hub := NewHub()

	assert.False(t, hub.IsOnline(42))
	assert.False(t, hub.SendToUser(42, []byte("unseen")))
}
