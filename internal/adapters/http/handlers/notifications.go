package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/notify"
	"github.com/jsamuelsen/quotekeeper/internal/platform/logging"
)

// StreamPath is the WebSocket route, relative to /api/v1.
const StreamPath = "/notifications/ws"

const wsWriteWait = 5 * time.Second

// NotificationHandler exposes the notification board.
type NotificationHandler struct {
	board    *notify.Board
	upgrader websocket.Upgrader
}

// NewNotificationHandler creates a notification handler.
func NewNotificationHandler(board *notify.Board) *NotificationHandler {
	return &NotificationHandler{
		board: board,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The stream is read-only status text.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Current handles GET /api/v1/notifications. An empty text means nothing
// is displayed.
func (h *NotificationHandler) Current(c *gin.Context) {
	m := h.board.Current()
	c.JSON(http.StatusOK, dto.NotificationResponse{Text: m.Text, Token: m.Token})
}

// Stream handles GET /api/v1/notifications/ws. Each board change, clears
// included, is sent as one JSON text frame. Incoming frames are ignored.
func (h *NotificationHandler) Stream(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	ctx := c.Request.Context()
	logger := logging.FromContext(ctx)

	messages, cancel := h.board.Subscribe()
	defer cancel()

	logger.DebugContext(ctx, "notification stream opened")

	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			logger.DebugContext(ctx, "notification stream closed")
			return
		case m, ok := <-messages:
			if !ok {
				return
			}

			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))

			if err := ws.WriteJSON(dto.NotificationResponse{Text: m.Text, Token: m.Token}); err != nil {
				logger.DebugContext(ctx, "notification stream write failed", slog.Any("error", err))
				return
			}
		}
	}
}

// RegisterNotificationRoutes registers notification routes.
func (h *NotificationHandler) RegisterNotificationRoutes(rg *gin.RouterGroup) {
	rg.GET("/notifications", h.Current)
	rg.GET(StreamPath, h.Stream)
}
