package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kapu/gamegen-go/internal/constants"
	"github.com/kapu/gamegen-go/internal/domain"
	apperrors "github.com/kapu/gamegen-go/pkg/errors"
	"go.uber.org/zap"
)

const (
	streamTypeProgress = "progress"
	streamTypeDone     = "done"
	streamTypeError    = "error"
)

type streamMessage struct {
	Type    string                `json:"type"`
	Message string                `json:"message,omitempty"`
	Event   *domain.ProgressEvent `json:"event,omitempty"`
	Records []domain.GameRecord   `json:"records,omitempty"`
}

// handleGenerateStream runs one batch per connection. The client sends a
// generate request; the server answers with a progress message per finished
// item and a final done message carrying every record in input order.
func (s *Server) handleGenerateStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetReadLimit(constants.ServerConfig.MaxRequestBytes)

	_, payload, err := conn.ReadMessage()
	if err != nil {
		s.logger.Debug("WebSocket closed before request", zap.Error(err))
		return
	}

	var req generateRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		s.writeStream(conn, streamMessage{Type: streamTypeError, Message: "invalid request body: " + err.Error()})
		return
	}

	urls, err := req.urls()
	if err != nil {
		msg := err.Error()
		if verr, ok := apperrors.AsValidationError(err); ok {
			msg = verr.Message
		}
		s.writeStream(conn, streamMessage{Type: streamTypeError, Message: msg})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// A client that goes away cancels the batch.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	records := s.generator.GenerateWithProgress(ctx, urls, func(ev domain.ProgressEvent) {
		s.writeStream(conn, streamMessage{Type: streamTypeProgress, Event: &ev})
	})

	s.writeStream(conn, streamMessage{Type: streamTypeDone, Records: records})

	deadline := time.Now().Add(constants.ServerConfig.WSWriteTimeout)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), deadline)
}

func (s *Server) writeStream(conn *websocket.Conn, msg streamMessage) {
	_ = conn.SetWriteDeadline(time.Now().Add(constants.ServerConfig.WSWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug("WebSocket write failed", zap.String("type", msg.Type), zap.Error(err))
	}
}
