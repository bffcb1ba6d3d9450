package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 16,
	WriteBufferSize: 1024 * 16,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev; restrict in production
	},
}

// WebSocket message types to clients.
const (
	wsMsgArtifactChanged  = "artifact_changed"
	wsMsgChecklistUpdated = "checklist_updated"
	wsMsgPong             = "pong"
	wsMsgError            = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// artifactEvent announces an external modification to an artifact.
type artifactEvent struct {
	Path string `json:"path"`
}

// checklistEvent announces a checklist mutation.
type checklistEvent struct {
	Path   string     `json:"path"`
	Record recordJSON `json:"record"`
}

// hub fans events out to all connected websocket clients.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan wsMessage
}

func newHub() *hub {
	return &hub{clients: make(map[*wsClient]struct{})}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// broadcast queues an event for every client. Slow clients are dropped
// rather than allowed to stall the hub.
func (h *hub) broadcast(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("ws marshal: %v", err)
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}

	h.mu.Lock()
	var stalled []*wsClient
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			stalled = append(stalled, c)
		}
	}
	for _, c := range stalled {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan wsMessage, 32)}
	s.hub.add(client)

	go client.writePump()
	client.readPump(s.hub)
}

func (c *wsClient) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *wsClient) readPump(h *hub) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read: %v", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.reply(wsMsgError, map[string]string{"message": "invalid message format"})
			continue
		}

		switch msg.Type {
		case "ping":
			c.reply(wsMsgPong, nil)
		default:
			c.reply(wsMsgError, map[string]string{"message": "unknown message type: " + msg.Type})
		}
	}
}

func (c *wsClient) reply(msgType string, data any) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			log.Printf("ws marshal: %v", err)
			return
		}
		raw = b
	}
	select {
	case c.send <- wsMessage{Type: msgType, Data: raw}:
	default:
	}
}
