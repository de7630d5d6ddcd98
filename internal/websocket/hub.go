package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/learnhub/api/internal/model"
)

// Client represents a WebSocket subscriber for one content record.
// Send is never closed; eviction is signalled through done.
type Client struct {
	ContentID string
	Conn      *websocket.Conn
	Send      chan []byte
	done      chan struct{}
}

func newClient(contentID string, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		ContentID: contentID,
		Conn:      conn,
		Send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
	}
}

// Done is closed once the hub drops the client
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Queue hands a frame to the writer without blocking. It reports false when
// the client was dropped or its buffer is full.
func (c *Client) Queue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Clients grouped by content ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	logger *slog.Logger
	mu     sync.RWMutex
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	ContentID string
	Message   []byte
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx is done. It must be
// called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.ContentID] == nil {
				h.clients[client.ContentID] = make(map[*Client]bool)
			}
			h.clients[client.ContentID][client] = true
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", "content_id", client.ContentID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.logger.Debug("websocket client unregistered", "content_id", client.ContentID)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.ContentID] {
				if !client.Queue(msg.Message) {
					h.logger.Warn("evicting slow websocket client", "content_id", msg.ContentID)
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.ContentID]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		delete(clients, client)
		close(client.done)
		if len(clients) == 0 {
			delete(h.clients, client.ContentID)
		}
	}
}

// Register adds a new client. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes a client. It is a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns the number of clients watching a content record
func (h *Hub) Subscribers(contentID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[contentID])
}

// ContentChanged pushes the record's transcode state to its subscribers
func (h *Hub) ContentChanged(_ context.Context, content *model.Content) {
	h.BroadcastStatus(model.WSStatusMessage{
		Type:             model.WSMessageTypeStatus,
		ContentID:        content.ID,
		TranscodeStatus:  content.TranscodeStatus,
		TranscodeJobName: content.TranscodeJobName,
		HLSURL:           content.HLSURL,
		ErrorMessage:     content.ErrorMessage,
		Attempt:          content.TranscodeAttempt,
	})
	if content.TranscodeStatus == model.TranscodeStatusFailed {
		h.BroadcastError(content.ID, ErrorCodeTranscodeFailed, content.ErrorMessage)
	}
}

// ErrorCodeTranscodeFailed tags the error frame sent when an attempt fails
const ErrorCodeTranscodeFailed = "TRANSCODE_FAILED"

// BroadcastStatus sends a status update to all subscribers of the content
func (h *Hub) BroadcastStatus(msg model.WSStatusMessage) {
	h.send(msg.ContentID, msg)
}

// BroadcastError sends an error message to all subscribers of the content
func (h *Hub) BroadcastError(contentID, code, message string) {
	h.send(contentID, model.WSErrorMessage{
		Type:      model.WSMessageTypeError,
		ContentID: contentID,
		Error: model.WSError{
			Code:    code,
			Message: message,
		},
	})
}

func (h *Hub) send(contentID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", "error", err)
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{ContentID: contentID, Message: data}:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping message", "content_id", contentID)
	}
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, contentID string) {
	client := newClient(contentID, c, 256)

	h.Register(client)
	defer h.Unregister(client)

	// Start writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message := <-client.Send:
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-client.done:
				c.WriteMessage(websocket.CloseMessage, []byte{})
				return

			case <-h.done:
				c.WriteMessage(websocket.CloseMessage, []byte{})
				return

			case <-ticker.C:
				// Send ping for keep-alive
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket error", "content_id", contentID, "error", err)
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			data, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			client.Queue(data)
		}
	}
}
