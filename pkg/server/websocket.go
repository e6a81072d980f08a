package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/plain-reactive/plain/internal/dev"
	"github.com/plain-reactive/plain/internal/errors"
)

// handleWebSocket registers the connection with the hub and processes its
// messages until it closes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	client, err := s.hub.Accept(w, r)
	if err != nil {
		s.logger.Debug("server: websocket upgrade failed", "error", err)
		return
	}
	defer s.hub.Remove(client)

	conn := client.Conn()
	conn.SetReadLimit(s.config.MaxMessageSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("server: websocket closed", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.reject(client, errors.Newf(errors.CategoryRuntime, "invalid message: %v", err))
			continue
		}
		if err := s.handleMessage(r.Context(), msg); err != nil {
			s.reject(client, err)
		}
	}
}

// handleMessage applies one client message to the host.
func (s *Server) handleMessage(ctx context.Context, msg ClientMessage) error {
	switch msg.Type {
	case TypeEvent:
		path, err := msg.IndexPath()
		if err != nil {
			return errors.New(errors.CodeUnresolvedPath).WithDetail(err.Error())
		}
		s.mu.Lock()
		handled, err := s.host.Dispatch(ctx, msg.Widget, path, msg.Event, msg.Data)
		s.mu.Unlock()
		if !handled && err == nil {
			s.logger.Debug("server: unhandled event", "widget", msg.Widget, "event", msg.Event, "path", path.String())
		}
		return err

	case TypeNavigate:
		res := s.config.Resolver
		if res == nil {
			return errors.Newf(errors.CategoryRuntime, "navigation is not configured")
		}
		target, err := msg.URLPath()
		if err != nil {
			return errors.New(errors.CodeUnresolvedPath).WithDetail(err.Error())
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return res.NavigateTo(target)

	default:
		return errors.Newf(errors.CategoryRuntime, "unknown message type %q", msg.Type)
	}
}

func (s *Server) reject(client *dev.Client, err error) {
	s.logger.Warn("server: message failed", "error", err)
	if sendErr := client.Send(dev.ReloadMessage{Type: dev.ReloadTypeError, Error: err.Error()}); sendErr != nil {
		s.logger.Debug("server: cannot report error", "error", sendErr)
	}
}
