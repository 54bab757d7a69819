package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

// Hub relays bus events to websocket clients of the same namespace. It is the
// cross-client half of the bus: delivery is best-effort and unordered across clients.
type Hub struct {
	buffer      int
	upgrader    websocket.Upgrader
	unsubscribe func()

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	namespace string
	conn      *websocket.Conn
	send      chan Event
}

func NewHub(bus *Bus, buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	h := &Hub{
		buffer: buffer,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
	h.unsubscribe = bus.Subscribe(TopicAll, h.dispatch)
	return h
}

// ServeWS upgrades the request and blocks until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, namespace string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("namespace", namespace).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(1024)

	c := &client{namespace: namespace, conn: conn, send: make(chan Event, h.buffer)}
	h.register(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(c)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(c)
	<-done
	conn.Close()
}

func (h *Hub) writeLoop(c *client) {
	for evt := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(evt); err != nil {
			log.Debug().Err(err).Str("namespace", c.namespace).Msg("websocket write failed")
			c.conn.Close()
			// drain so unregister can close the channel
			for range c.send {
			}
			return
		}
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) dispatch(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.namespace != evt.Namespace {
			continue
		}
		select {
		case c.send <- evt:
		default:
			log.Debug().Str("namespace", c.namespace).Str("topic", evt.Topic).Msg("websocket client buffer full, dropping event")
		}
	}
}

// ClientCount reports connected clients for a namespace.
func (h *Hub) ClientCount(namespace string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := range h.clients {
		if c.namespace == namespace {
			n++
		}
	}
	return n
}

// Close detaches from the bus and disconnects every client.
func (h *Hub) Close() {
	h.unsubscribe()
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.Unlock()
	for _, conn := range conns {
		conn.Close()
	}
}
