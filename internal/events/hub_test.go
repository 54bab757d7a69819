package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newHubServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("ns"))
	}))
}

func dial(t *testing.T, srv *httptest.Server, ns string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?ns=" + ns
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, hub *Hub, ns string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount(ns) == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubRelaysToSameNamespaceOnly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	bus := NewBus()
	hub := NewHub(bus, 4)
	srv := newHubServer(t, hub)
	defer srv.Close()
	defer hub.Close()

	a := dial(t, srv, "tab-a")
	defer a.Close()
	b := dial(t, srv, "tab-b")
	defer b.Close()
	waitForClients(t, hub, "tab-a", 1)
	waitForClients(t, hub, "tab-b", 1)

	bus.PublishJSON(StorageTopic("cartItems"), "tab-a", "cartItems", []int{1})

	var evt Event
	require.NoError(t, a.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, a.ReadJSON(&evt))
	assert.Equal(t, "storage:cartItems", evt.Topic)
	assert.Equal(t, "cartItems", evt.Key)

	require.NoError(t, b.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := b.ReadMessage()
	assert.Error(t, err, "other namespace must not receive the event")
}

func TestHubClientDisconnectUnregisters(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	bus := NewBus()
	hub := NewHub(bus, 4)
	srv := newHubServer(t, hub)
	defer srv.Close()
	defer hub.Close()

	conn := dial(t, srv, "ns")
	waitForClients(t, hub, "ns", 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, "ns", 0)

	// publishing after the client left must not block or panic
	bus.Publish(Event{Topic: "t", Namespace: "ns"})
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	bus := NewBus()
	hub := NewHub(bus, 1)
	defer hub.Close()

	c := &client{namespace: "ns", send: make(chan Event, 1)}
	hub.register(c)

	bus.Publish(Event{Topic: "a", Namespace: "ns"})
	bus.Publish(Event{Topic: "b", Namespace: "ns"})

	require.Len(t, c.send, 1)
	assert.Equal(t, "a", (<-c.send).Topic)
	hub.unregister(c)
}
