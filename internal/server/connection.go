package server

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

// Connection represents a WebSocket client connection
type Connection struct {
	conn          *websocket.Conn
	send          chan *Message
	participantID string
	sessionID     string
	logger        *log.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	mu            sync.RWMutex
	closeOnce     sync.Once
	service       *Service
}

// NewConnection creates a new WebSocket connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, service *Service) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
		service: service,
	}
}

// Start begins the read and write pumps for the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection and cancels its context
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for delivery to the client.
func (c *Connection) SendMessage(msg *Message) (err error) {
	defer func() {
		// Sending on a closed channel races with Close.
		if r := recover(); r != nil {
			err = fmt.Errorf("connection closed")
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return fmt.Errorf("connection closed")
	default:
		c.logger.Warn("Send buffer full, dropping connection", "participant", c.GetParticipant())
		_ = c.Close()
		return fmt.Errorf("send buffer full")
	}
}

// SetParticipant associates a participant identity with this connection
func (c *Connection) SetParticipant(sessionID, participantID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.participantID = participantID
}

// GetParticipant returns the participant id bound to this connection
func (c *Connection) GetParticipant() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.participantID
}

// GetSession returns the session id this connection is watching
func (c *Connection) GetSession() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// readPump handles incoming messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket read error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Error("Failed to unmarshal message", "error", err)
			c.sendError("invalid_message", "malformed message")
			continue
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Error("WebSocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches an incoming message to the service
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "participant", c.GetParticipant())

	switch msg.Type {
	case MessageTypeCreateSession:
		c.handleCreateSession(msg.Data)
	case MessageTypeJoinSession:
		c.handleJoinSession(msg.Data)
	case MessageTypeStartGame:
		c.handleStartGame(msg.Data)
	case MessageTypeSubmitAnswer:
		c.handleSubmitAnswer(msg.Data)
	case MessageTypeSelectWinner:
		c.handleSelectWinner(msg.Data)
	case MessageTypeListPersonas:
		c.handleListPersonas()
	case MessageTypeGetHand:
		c.handleGetHand(msg.Data)
	default:
		c.sendError("unknown_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (c *Connection) handleCreateSession(data json.RawMessage) {
	var req CreateSessionData
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid_data", "malformed create_session data")
		return
	}

	created, err := c.service.CreateSession(c.ctx, req)
	if err != nil {
		c.sendError("create_failed", err.Error())
		return
	}

	c.SetParticipant(created.SessionID, created.ParticipantID)

	c.reply(MessageTypeSessionCreated, created)
}

func (c *Connection) handleJoinSession(data json.RawMessage) {
	var req JoinSessionData
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid_data", "malformed join_session data")
		return
	}

	joined, err := c.service.JoinSession(c.ctx, req)
	if err != nil {
		c.sendError("join_failed", err.Error())
		return
	}

	c.SetParticipant(joined.SessionID, joined.ParticipantID)

	c.reply(MessageTypeSessionState, SessionStateData{State: joined.State})
}

func (c *Connection) handleStartGame(data json.RawMessage) {
	var req StartGameData
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid_data", "malformed start_game data")
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.GetSession()
	}

	if err := c.service.StartGame(c.ctx, req.SessionID); err != nil {
		c.sendError("start_failed", err.Error())
	}
}

func (c *Connection) handleSubmitAnswer(data json.RawMessage) {
	var req SubmitAnswerData
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid_data", "malformed submit_answer data")
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.GetSession()
	}

	if err := c.service.SubmitAnswer(c.ctx, req.SessionID, c.GetParticipant(), req.CardIDs); err != nil {
		c.sendError("submit_failed", err.Error())
	}
}

func (c *Connection) handleSelectWinner(data json.RawMessage) {
	var req SelectWinnerData
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid_data", "malformed select_winner data")
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.GetSession()
	}

	if err := c.service.SelectWinner(c.ctx, req.SessionID, c.GetParticipant(), req.TableIndex); err != nil {
		c.sendError("select_failed", err.Error())
	}
}

func (c *Connection) handleListPersonas() {
	c.reply(MessageTypePersonaList, PersonaListData{Personas: c.service.Personas()})
}

func (c *Connection) handleGetHand(data json.RawMessage) {
	var req GetHandData
	if err := json.Unmarshal(data, &req); err != nil {
		c.sendError("invalid_data", "malformed get_hand data")
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.GetSession()
	}

	hand, err := c.service.Hand(c.ctx, req.SessionID, c.GetParticipant())
	if err != nil {
		c.sendError("hand_failed", err.Error())
		return
	}

	c.reply(MessageTypeYourHand, hand)
}

// reply marshals and sends a message back to this connection
func (c *Connection) reply(messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	if err := c.SendMessage(msg); err != nil {
		c.logger.Error("Failed to send message", "type", messageType, "error", err)
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	c.reply(MessageTypeError, ErrorData{Code: code, Message: message})
}
