package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-series/internal/entity"
	"github.com/rocketscienceinc/tictactoe-series/transport/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBuffer     = 16
)

type uSeries interface {
	GetOrCreate(ctx context.Context, sessionID string) (entity.View, error)
	Configure(ctx context.Context, sessionID string, players entity.Players) (entity.View, error)
	SelectBestOf(ctx context.Context, sessionID string, bestOf int) (entity.View, error)
	Setup(ctx context.Context, sessionID string, config entity.SeriesConfig) (entity.View, error)
	Start(ctx context.Context, sessionID string) (entity.View, error)
	Play(ctx context.Context, sessionID string, cell int) (entity.View, error)
	NextRound(ctx context.Context, sessionID string) (entity.View, error)
	Acknowledge(ctx context.Context, sessionID string) (entity.View, error)
	Reset(ctx context.Context, sessionID string) (entity.View, error)
	Subscribe(sessionID string) (<-chan entity.View, func())
}

type handler func(ctx context.Context, conn *connection, msg *Message) error

type Server struct {
	logger   *slog.Logger
	series   uSeries
	upgrader websocket.Upgrader

	handlers map[string]handler
}

func New(logger *slog.Logger, series uSeries) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		series: series,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},

		handlers: make(map[string]handler),
	}

	server.handlers[actionGet] = server.handleGet
	server.handlers[actionSetup] = server.handleSetup
	server.handlers[actionStart] = server.handleStart
	server.handlers[actionMove] = server.handleMove
	server.handlers[actionNext] = server.handleNext
	server.handlers[actionAck] = server.handleAck
	server.handlers[actionReset] = server.handleReset

	return server
}

// connection serialises writes to one socket through the send channel.
type connection struct {
	sessionID string
	socket    *websocket.Conn
	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

func (that *connection) enqueue(msg Message) bool {
	select {
	case that.send <- msg:
		return true
	case <-that.done:
		return false
	}
}

func (that *connection) close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// ServeHTTP upgrades the request. It expects session.Middleware to run first.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	sessionID := session.FromContext(req.Context())
	if sessionID == "" {
		http.Error(writer, "session is required", http.StatusBadRequest)
		return
	}

	// cookies issued by the session middleware have to travel with the upgrade response
	header := http.Header{}
	for _, cookie := range writer.Header().Values("Set-Cookie") {
		header.Add("Set-Cookie", cookie)
	}
	writer.Header().Del("Set-Cookie")

	socket, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := &connection{
		sessionID: sessionID,
		socket:    socket,
		send:      make(chan Message, sendBuffer),
		done:      make(chan struct{}),
	}

	log.Info("WebSocket connection established", "sessionID", sessionID)

	updates, cancel := that.series.Subscribe(sessionID)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		that.forwardUpdates(conn, updates)
	}()

	go func() {
		defer wg.Done()
		that.writePump(conn)
	}()

	that.handleMessages(context.WithoutCancel(req.Context()), conn)

	conn.close()
	cancel()
	wg.Wait()

	log.Info("WebSocket connection closed", "sessionID", sessionID)
}

// handleMessages reads client messages until the socket fails.
func (that *Server) handleMessages(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "handleMessages", "sessionID", conn.sessionID)

	conn.socket.SetReadLimit(maxMessageSize)
	_ = conn.socket.SetReadDeadline(time.Now().Add(pongWait))
	conn.socket.SetPongHandler(func(string) error {
		return conn.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(raw, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			that.sendError(conn, actionError, "invalid message")
			continue
		}

		handle, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			that.sendError(conn, message.Action, "unknown action")
			continue
		}

		if err = handle(ctx, conn, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) forwardUpdates(conn *connection, updates <-chan entity.View) {
	log := that.logger.With("method", "forwardUpdates", "sessionID", conn.sessionID)

	for {
		select {
		case view, ok := <-updates:
			if !ok {
				return
			}

			msg, err := newMessage(actionState, ResponsePayload{Series: &view})
			if err != nil {
				log.Error("failed to build update", "error", err)
				continue
			}

			if !conn.enqueue(msg) {
				return
			}
		case <-conn.done:
			return
		}
	}
}

func (that *Server) writePump(conn *connection) {
	log := that.logger.With("method", "writePump", "sessionID", conn.sessionID)

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.socket.Close()
	}()

	for {
		select {
		case msg := <-conn.send:
			_ = conn.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.socket.WriteJSON(msg); err != nil {
				log.Error("failed to write message", "error", err)
				conn.close()
				return
			}
		case <-ticker.C:
			_ = conn.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.close()
				return
			}
		case <-conn.done:
			_ = conn.socket.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

var errConnectionClosed = errors.New("connection closed")

func (that *Server) sendMessage(conn *connection, action string, payload ResponsePayload) error {
	msg, err := newMessage(action, payload)
	if err != nil {
		return err
	}

	if !conn.enqueue(msg) {
		return errConnectionClosed
	}

	return nil
}

func (that *Server) sendError(conn *connection, action, errorMsg string) {
	_ = that.sendMessage(conn, action, ResponsePayload{Error: errorMsg})
}
