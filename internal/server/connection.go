package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/fivehands/internal/game"
	"github.com/lox/fivehands/internal/session"
)

// Connection bridges one WebSocket client to its own game session
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	session     *session.Session
	unsubscribe func()
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
}

// NewConnection creates a new connection wrapper around sess
func NewConnection(conn *websocket.Conn, sess *session.Session, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		session: sess,
		logger:  logger.WithPrefix("conn").With("session", sess.ID()[:8]),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins handling the connection and pushes the initial view
func (c *Connection) Start() {
	c.unsubscribe = c.session.Subscribe(c.pushView)
	c.pushView(c.session.View())

	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection has shut down
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection. It does not close the session, so it is safe
// to call from a session observer.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// release detaches and closes the session once the connection is gone
func (c *Connection) release() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.session.Close()
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// pushView is the session observer. It runs under the session lock and only
// enqueues.
func (c *Connection) pushView(v session.View) {
	msg, err := NewMessage(MessageTypeView, v)
	if err != nil {
		c.logger.Error("Failed to encode view", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// ErrConnectionClosed is returned when sending on a closed connection
var ErrConnectionClosed = errors.New("connection closed")

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleMessage maps a client message onto a session operation
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	var err error
	switch msg.Type {
	case MessageTypeStart:
		var data StartData
		if jerr := json.Unmarshal(msg.Data, &data); jerr != nil {
			c.sendError(ErrorCodeInvalidMessage, "Failed to parse start data")
			return
		}
		err = c.session.Start(data.PlayerName)

	case MessageTypeSubmit:
		var data SubmitData
		if jerr := json.Unmarshal(msg.Data, &data); jerr != nil {
			c.sendError(ErrorCodeInvalidMessage, "Failed to parse submit data")
			return
		}
		hand, perr := game.ParseHand(data.Hand)
		if perr != nil {
			err = perr
			break
		}
		err = c.session.Submit(hand)

	case MessageTypeExit:
		err = c.session.Exit()

	case MessageTypeToggleMode:
		err = c.session.ToggleMode()

	case MessageTypeRefreshRankings:
		err = c.session.RefreshRankings()

	default:
		c.sendError(ErrorCodeUnknownMessageType, "Unknown message type: "+msg.Type.String())
		return
	}

	if err != nil {
		c.sendError(errorCode(err), err.Error())
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrIllegalTransition):
		return ErrorCodeIllegalTransition
	case errors.Is(err, session.ErrInvalidPlayer):
		return ErrorCodeInvalidPlayer
	case errors.Is(err, game.ErrUnknownHand):
		return ErrorCodeUnknownHand
	case errors.Is(err, session.ErrClosed):
		return ErrorCodeSessionClosed
	default:
		return ErrorCodeInternal
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}
