package realtime

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"brandreel-server/modules/common/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// pages are served from the same origin; the API is open like the REST routes
		return true
	},
}

// RegisterRoutes - 라우트 등록
func (h *Hub) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/ws", h.HandleWebSocket)
	r.HandleFunc("/ws/topics/{topic}", h.HandleTopicInfo).Methods("GET")
	r.HandleFunc("/metrics", h.HandleMetrics).Methods("GET")
	r.HandleFunc("/admin/cleanup", h.HandleCleanup).Methods("POST")
	zap.L().Info("[Realtime] routes registered: /ws, /ws/topics/{topic}, /metrics, /admin/cleanup")
}

// HandleWebSocket - GET /ws?job={job_id}
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("job")
	if topic == "" {
		utils.WriteError(w, http.StatusBadRequest, "job parameter is required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("[Realtime] websocket upgrade failed", zap.Error(err))
		return
	}

	c := h.subscribe(topic, conn)
	go c.writePump()
	go c.readPump(h)
}

// readPump discards client messages and unsubscribes on close.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unsubscribe(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("[Realtime] websocket closed", zap.String("topic", c.topic), zap.Error(err))
			}
			return
		}
	}
}

// 클라이언트로 메시지 쓰기
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				zap.L().Debug("[Realtime] websocket write failed", zap.String("topic", c.topic), zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// HandleTopicInfo - GET /ws/topics/{topic}
func (h *Hub) HandleTopicInfo(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	count, ok := h.Subscribers(topic)
	if !ok {
		utils.WriteError(w, http.StatusNotFound, "Topic not found")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"topic":       topic,
		"subscribers": count,
	})
}

// 서버 메트릭 조회 엔드포인트
func (h *Hub) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	m, clients := h.Snapshot()
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"uptime":           time.Since(m.StartTime).String(),
			"startTime":        m.StartTime,
			"totalTopics":      m.TotalTopics,
			"activeTopics":     m.ActiveTopics,
			"totalConnections": m.TotalConnections,
			"currentClients":   clients,
			"published":        m.Published,
			"dropped":          m.Dropped,
		},
	})
}

// HandleCleanup - POST /admin/cleanup drops every topic without subscribers.
func (h *Hub) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	cleaned := h.Cleanup(0)
	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "Cleanup completed",
		"cleaned": cleaned,
	})
}
