package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBuffer = 64

// 연결된 클라이언트 정보
type Client struct {
	id    string
	topic string
	conn  *websocket.Conn
	send  chan []byte
}

// Topic - one job's subscribers plus the last event, replayed to late joiners
type Topic struct {
	id           string
	clients      map[string]*Client
	last         []byte
	createdAt    time.Time
	lastActivity time.Time
	mutex        sync.Mutex
}

// 서버 메트릭
type Metrics struct {
	TotalTopics      int       `json:"totalTopics"`
	ActiveTopics     int       `json:"activeTopics"`
	TotalConnections int       `json:"totalConnections"`
	Published        int       `json:"published"`
	Dropped          int       `json:"dropped"`
	StartTime        time.Time `json:"startTime"`
}

// Hub fans job events out to websocket subscribers, keyed by job id.
type Hub struct {
	topics  map[string]*Topic
	mutex   sync.RWMutex
	metrics Metrics
	mmu     sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		topics:  make(map[string]*Topic),
		metrics: Metrics{StartTime: time.Now()},
	}
}

// Publish marshals payload and delivers it to every subscriber of topic.
// Subscribers whose buffer is full are disconnected.
func (h *Hub) Publish(topic string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Warn("[Realtime] failed to marshal event", zap.String("topic", topic), zap.Error(err))
		return
	}

	t := h.getOrCreateTopic(topic)

	t.mutex.Lock()
	t.last = data
	t.lastActivity = time.Now()
	var dropped int
	for id, c := range t.clients {
		select {
		case c.send <- data:
		default:
			close(c.send)
			delete(t.clients, id)
			dropped++
		}
	}
	t.mutex.Unlock()

	h.mmu.Lock()
	h.metrics.Published++
	h.metrics.Dropped += dropped
	h.mmu.Unlock()

	if dropped > 0 {
		zap.L().Warn("[Realtime] dropped slow subscribers", zap.String("topic", topic), zap.Int("count", dropped))
	}
}

// subscribe registers a client and replays the topic's last event to it.
func (h *Hub) subscribe(topic string, conn *websocket.Conn) *Client {
	c := &Client{
		id:    uuid.New().String(),
		topic: topic,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
	}

	t := h.getOrCreateTopic(topic)
	t.mutex.Lock()
	t.clients[c.id] = c
	t.lastActivity = time.Now()
	if t.last != nil {
		c.send <- t.last
	}
	count := len(t.clients)
	t.mutex.Unlock()

	h.mmu.Lock()
	h.metrics.TotalConnections++
	h.mmu.Unlock()

	zap.L().Info("[Realtime] client subscribed", zap.String("topic", topic), zap.Int("clients", count))
	return c
}

// unsubscribe is a no-op for clients already dropped by Publish.
func (h *Hub) unsubscribe(c *Client) {
	h.mutex.RLock()
	t, ok := h.topics[c.topic]
	h.mutex.RUnlock()
	if !ok {
		return
	}

	t.mutex.Lock()
	if _, exists := t.clients[c.id]; exists {
		close(c.send)
		delete(t.clients, c.id)
	}
	t.lastActivity = time.Now()
	t.mutex.Unlock()
}

func (h *Hub) getOrCreateTopic(id string) *Topic {
	h.mutex.RLock()
	t, ok := h.topics[id]
	h.mutex.RUnlock()
	if ok {
		return t
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if t, ok = h.topics[id]; ok {
		return t
	}
	now := time.Now()
	t = &Topic{id: id, clients: make(map[string]*Client), createdAt: now, lastActivity: now}
	h.topics[id] = t

	h.mmu.Lock()
	h.metrics.TotalTopics++
	h.metrics.ActiveTopics++
	h.mmu.Unlock()
	return t
}

// Cleanup removes topics without subscribers that have been idle longer than idle.
func (h *Hub) Cleanup(idle time.Duration) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	now := time.Now()
	cleaned := 0
	for id, t := range h.topics {
		t.mutex.Lock()
		remove := len(t.clients) == 0 && now.Sub(t.lastActivity) >= idle
		t.mutex.Unlock()
		if remove {
			delete(h.topics, id)
			cleaned++
		}
	}

	if cleaned > 0 {
		h.mmu.Lock()
		h.metrics.ActiveTopics -= cleaned
		h.mmu.Unlock()
		zap.L().Info("[Realtime] cleaned up idle topics", zap.Int("count", cleaned))
	}
	return cleaned
}

// StartCleanupRoutine runs Cleanup every interval until stop is closed.
func (h *Hub) StartCleanupRoutine(interval, idle time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				h.Cleanup(idle)
			}
		}
	}()
	zap.L().Info("[Realtime] started topic cleanup routine",
		zap.Duration("interval", interval), zap.Duration("idle", idle))
}

// Snapshot returns the counters plus current subscriber count.
func (h *Hub) Snapshot() (Metrics, int) {
	h.mmu.Lock()
	m := h.metrics
	h.mmu.Unlock()

	h.mutex.RLock()
	defer h.mutex.RUnlock()
	clients := 0
	for _, t := range h.topics {
		t.mutex.Lock()
		clients += len(t.clients)
		t.mutex.Unlock()
	}
	return m, clients
}

// Subscribers returns the number of clients on topic and whether it exists.
func (h *Hub) Subscribers(topic string) (int, bool) {
	h.mutex.RLock()
	t, ok := h.topics[topic]
	h.mutex.RUnlock()
	if !ok {
		return 0, false
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.clients), true
}
