package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"campusaid/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 8192
	sendBufferSize = 256
)

// Client represents a WebSocket connection client
type Client struct {
	ID      string
	UserID  string
	Conn    *websocket.Conn
	Send    chan []byte
	Session *Session

	mu     sync.Mutex
	closed bool
}

// Manager tracks every live overlay session, keyed by user
type Manager struct {
	clients    map[string]map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	mutex      sync.RWMutex

	ctx          context.Context
	done         chan struct{}
	pingInterval time.Duration
}

func NewManager(pingInterval time.Duration) *Manager {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Manager{
		clients:      make(map[string]map[string]*Client),
		Register:     make(chan *Client),
		Unregister:   make(chan *Client),
		ctx:          context.Background(),
		done:         make(chan struct{}),
		pingInterval: pingInterval,
	}
}

// Start runs the manager's main loop in a goroutine. Cancelling ctx closes every session.
func (m *Manager) Start(ctx context.Context) {
	m.mutex.Lock()
	m.ctx = ctx
	m.mutex.Unlock()

	go func() {
		for {
			select {
			case client := <-m.Register:
				m.mutex.Lock()
				if m.clients[client.UserID] == nil {
					m.clients[client.UserID] = make(map[string]*Client)
				}
				m.clients[client.UserID][client.ID] = client
				m.mutex.Unlock()
				logger.Info("Client registered: %s (user %s)", client.ID, client.UserID)

			case client := <-m.Unregister:
				if m.remove(client) {
					logger.Info("Client unregistered: %s (user %s)", client.ID, client.UserID)
				}

			case <-ctx.Done():
				m.closeAll()
				close(m.done)
				return
			}
		}
	}()
}

// Connect builds the session for an upgraded connection, registers it and starts its pumps.
// It returns nil when the manager has already shut down.
func (m *Manager) Connect(conn *websocket.Conn, userID string, chats ChatService) *Client {
	m.mutex.RLock()
	ctx := m.ctx
	m.mutex.RUnlock()

	client := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBufferSize),
	}
	client.Session = NewSession(ctx, userID, chats, client.emit)
	client.Session.OnSignOut = func() { m.unregister(client) }

	select {
	case m.Register <- client:
	case <-m.done:
		conn.Close()
		return nil
	}

	client.Session.Start()
	go client.ReadPump(m)
	go client.WritePump(m.pingInterval)

	return client
}

// CloseUser tears down every session of userID and reports how many were closed.
func (m *Manager) CloseUser(userID string) int {
	m.mutex.RLock()
	clients := make([]*Client, 0, len(m.clients[userID]))
	for _, c := range m.clients[userID] {
		clients = append(clients, c)
	}
	m.mutex.RUnlock()

	closed := 0
	for _, c := range clients {
		if m.remove(c) {
			closed++
		}
	}
	return closed
}

// SessionCount returns the number of live sessions of userID.
func (m *Manager) SessionCount(userID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients[userID])
}

func (m *Manager) unregister(c *Client) {
	select {
	case m.Unregister <- c:
	case <-m.done:
	}
}

func (m *Manager) remove(c *Client) bool {
	m.mutex.Lock()
	sessions, ok := m.clients[c.UserID]
	if ok {
		_, ok = sessions[c.ID]
		delete(sessions, c.ID)
		if len(sessions) == 0 {
			delete(m.clients, c.UserID)
		}
	}
	m.mutex.Unlock()

	if ok {
		c.close()
	}
	return ok
}

func (m *Manager) closeAll() {
	m.mutex.Lock()
	all := m.clients
	m.clients = make(map[string]map[string]*Client)
	m.mutex.Unlock()

	for _, sessions := range all {
		for _, c := range sessions {
			c.close()
		}
	}
}

func (c *Client) emit(message WSMessage) {
	payload, err := json.Marshal(message)
	if err != nil {
		logger.Error("WebSocket: Failed to marshal %s frame for %s: %v", message.Type, c.UserID, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
	default:
		logger.Warn("WebSocket: Send buffer full for client %s, dropping %s frame", c.ID, message.Type)
	}
}

// close ends the session and the write pump; the read pump exits when the connection closes.
func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	c.mu.Unlock()

	if c.Session != nil {
		c.Session.Close()
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump(m *Manager) {
	defer func() {
		m.unregister(c)
		c.Conn.Close()
	}()

	pongWait := 2 * m.pingInterval
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket: Read from client %s failed: %v", c.ID, err)
			}
			break
		}

		c.Session.HandleClientMessage(message)
	}
}

// WritePump sends messages to the WebSocket connection
func (c *Client) WritePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error("WebSocket: Write to client %s failed: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
