// Package realtime fans post mutation events out to connected WebSocket
// subscribers. Delivery is fire-and-forget: no acknowledgment, no retry, no
// replay for clients that connect later.
package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mohamedzeina/node-social/utils"
)

// Event is the structured message every subscriber receives after a
// successful post mutation.
type Event struct {
	Channel string      `json:"channel"`
	Action  string      `json:"action"`
	Post    interface{} `json:"post,omitempty"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// per-client outbound buffer; a client that cannot drain it is dropped
	clientSendBuffer   = 16
	hubBroadcastBuffer = 64
)

var subscriberGauge = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "realtime_subscribers",
	Help: "Number of connected realtime subscribers",
})

func init() { prometheus.MustRegister(subscriberGauge) }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub owns the subscriber set. All membership changes and fan-outs go through
// its channels, serialized by the Run loop.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan Event
}

// NewHub creates an idle hub; call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, hubBroadcastBuffer),
	}
}

// Run serializes registration, unregistration and broadcast fan-out.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			subscriberGauge.Set(float64(len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				subscriberGauge.Set(float64(len(h.clients)))
			}
		case ev := <-h.broadcast:
			msg, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// slow client: drop it rather than block the fan-out
					delete(h.clients, c)
					close(c.send)
				}
			}
			subscriberGauge.Set(float64(len(h.clients)))
		}
	}
}

// BroadcastPost queues a post mutation event. It never blocks the caller; on a
// full queue the event is dropped with a warning.
func (h *Hub) BroadcastPost(action string, post interface{}) {
	ev := Event{Channel: "posts", Action: action, Post: post}
	select {
	case h.broadcast <- ev:
	default:
		if utils.Sugar != nil {
			utils.Sugar.Warnf("broadcast queue full, dropping %s event", action)
		}
	}
}

// ServeWS upgrades the request and attaches the connection as a subscriber.
// Authentication is not required to listen.
func (h *Hub) ServeWS(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("websocket upgrade failed: %v", err)
		}
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.register <- c

	go c.writePump()
	go c.readPump()
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump discards inbound frames; subscribers are listen-only. It exists to
// notice closed connections and keep the pong deadline fresh.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
