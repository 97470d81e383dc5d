package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobber/internal/services"
	"github.com/yoockh/jobber/internal/utils"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
)

type NotificationHandler struct {
	svc      services.NotificationService
	redis    *redis.Client
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

// NewNotificationHandler serves the notification inbox and live feed.
// svc and rdb may be nil when Mongo or Redis are not configured.
func NewNotificationHandler(svc services.NotificationService, rdb *redis.Client, l *logrus.Logger) *NotificationHandler {
	return &NotificationHandler{
		svc:   svc,
		redis: rdb,
		log:   l,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *NotificationHandler) List(c *gin.Context) {
	const op = "NotificationHandler.List"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if h.svc == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "notifications are not configured", nil))
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	list, err := h.svc.ListForUser(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(typ int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(typ, b)
}

// Stream forwards the caller's notification channel over a websocket.
func (h *NotificationHandler) Stream(c *gin.Context) {
	const op = "NotificationHandler.Stream"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if h.redis == nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "live notifications are not configured", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrader already wrote the response
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.redis.Subscribe(ctx, services.UserChannel(userID))
	defer pubsub.Close()

	// reader: only pongs and close frames are expected
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	msgs := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := wc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case m, ok := <-msgs:
			if !ok {
				return
			}
			if err := wc.write(websocket.TextMessage, []byte(m.Payload)); err != nil {
				h.log.WithError(err).WithField("user_id", userID).Debug("websocket write failed")
				return
			}
		}
	}
}
