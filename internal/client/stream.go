package client

import (
	"context"
	stderrors "errors"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kapu/gamegen-go/internal/domain"
	"github.com/kapu/gamegen-go/internal/util"
	"github.com/kapu/gamegen-go/pkg/errors"
	"go.uber.org/zap"
)

type ProgressCallback func(event domain.ProgressEvent)

type streamMessage struct {
	Type    string                `json:"type"`
	Message string                `json:"message,omitempty"`
	Event   *domain.ProgressEvent `json:"event,omitempty"`
	Records []domain.GameRecord   `json:"records,omitempty"`
}

// ErrStreamUnsupported means the server answered but refused the WebSocket
// upgrade, typically because a proxy in front of it does not pass upgrades.
var ErrStreamUnsupported = stderrors.New("server does not accept WebSocket streams")

// StreamGenerate runs a batch over the server's WebSocket endpoint, calling
// onProgress as items finish. It returns the final records in input order.
func (c *Client) StreamGenerate(ctx context.Context, urls []string, onProgress ProgressCallback) ([]domain.GameRecord, error) {
	wsURL := websocketURL(c.baseURL) + "/ws/games"

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if stderrors.Is(err, websocket.ErrBadHandshake) {
			err = fmt.Errorf("%w: %w", ErrStreamUnsupported, err)
		}
		c.logger.Error("Failed to connect WebSocket", zap.String("url", wsURL), zap.Error(err))
		return nil, errors.NewAPIError("failed to connect to stream", 502, map[string]any{
			"url": wsURL,
		}).WithCause(err)
	}
	defer conn.Close()

	// unblock ReadMessage when ctx ends
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := conn.WriteJSON(map[string]any{"urls": urls}); err != nil {
		return nil, fmt.Errorf("send stream request: %w", err)
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("stream closed before completion: %w", err)
		}

		var msg streamMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Error("Failed to parse stream message",
				zap.Error(err),
				zap.String("data", util.TruncateString(string(payload), 200)),
			)
			continue
		}

		switch msg.Type {
		case "progress":
			if msg.Event != nil && onProgress != nil {
				onProgress(*msg.Event)
			}
		case "done":
			if msg.Records == nil {
				msg.Records = []domain.GameRecord{}
			}
			return msg.Records, nil
		case "error":
			return nil, errors.NewValidationError(msg.Message, "urls", nil)
		default:
			c.logger.Warn("Unknown stream message type", zap.String("type", msg.Type))
		}
	}
}

func websocketURL(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}
