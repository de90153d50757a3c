// Package ws - Generation Progress Streaming
// Fans pipeline events out to the websocket subscribers of each run
package ws

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"sitesmith/internal/metrics"
	"sitesmith/internal/pipeline"
)

// Hub maintains the subscribers of every in-flight generation run.
type Hub struct {
	// Registered clients by run ID
	runs map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	events     chan runEvent

	// Shutdown channel for graceful termination
	shutdown chan struct{}

	log *zap.Logger
	mu  sync.RWMutex
}

type runEvent struct {
	runID string
	data  []byte
}

// WebSocket upgrader configuration
// SECURITY: Strict origin checking - no empty origins in production
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		allowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
		var allowedOrigins []string
		if allowedOriginsEnv != "" {
			allowedOrigins = strings.Split(allowedOriginsEnv, ",")
		} else {
			allowedOrigins = []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			}
		}

		for _, allowed := range allowedOrigins {
			if strings.TrimSpace(allowed) == origin {
				return true
			}
		}

		// Only allow empty origin in non-production for testing tools
		env := os.Getenv("ENVIRONMENT")
		if origin == "" && env != "production" {
			return true
		}

		return false
	},
}

// NewHub creates a progress hub. Run must be started on its own goroutine.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		runs:       make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan runEvent, 64),
		shutdown:   make(chan struct{}),
		log:        log,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.shutdown:
			h.mu.Lock()
			for _, clients := range h.runs {
				for client := range clients {
					close(client.send)
				}
			}
			h.runs = make(map[string]map[*Client]bool)
			h.mu.Unlock()
			h.log.Info("progress hub shut down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case ev := <-h.events:
			h.fanOut(ev)
		}
	}
}

// Shutdown gracefully stops the hub.
func (h *Hub) Shutdown() {
	close(h.shutdown)
}

// Publish queues one progress event for the subscribers of a run. It never
// blocks the generation pipeline: when the hub is backed up the event is
// dropped.
func (h *Hub) Publish(runID string, ev pipeline.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("marshaling progress event", zap.Error(err))
		return
	}
	select {
	case h.events <- runEvent{runID: runID, data: data}:
		metrics.Get().RecordWSEvent(string(ev.Type))
	case <-h.shutdown:
	default:
		h.log.Warn("progress event dropped, hub backed up",
			zap.String("run_id", runID),
			zap.String("type", string(ev.Type)))
	}
}

// Emitter adapts the hub to the pipeline's emit callback for one run.
func (h *Hub) Emitter(runID string) func(pipeline.Event) {
	return func(ev pipeline.Event) {
		h.Publish(runID, ev)
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.runs[client.runID] == nil {
		h.runs[client.runID] = make(map[*Client]bool)
	}
	h.runs[client.runID][client] = true
	metrics.Get().RecordWSConnection(1)

	h.log.Debug("progress subscriber connected",
		zap.String("run_id", client.runID),
		zap.Int("subscribers", len(h.runs[client.runID])))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.runs[client.runID]
	if clients == nil || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.runs, client.runID)
	}
	close(client.send)
	metrics.Get().RecordWSConnection(-1)

	h.log.Debug("progress subscriber disconnected", zap.String("run_id", client.runID))
}

func (h *Hub) fanOut(ev runEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.runs[ev.runID] {
		select {
		case client.send <- ev.data:
		default:
			// Subscriber cannot keep up, drop it
			close(client.send)
			delete(h.runs[ev.runID], client)
			metrics.Get().RecordWSConnection(-1)
		}
	}
	if len(h.runs[ev.runID]) == 0 {
		delete(h.runs, ev.runID)
	}
}

// ClientCount returns the total number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, clients := range h.runs {
		total += len(clients)
	}
	return total
}

// ActiveRuns returns the run IDs that currently have subscribers.
func (h *Hub) ActiveRuns() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	runs := make([]string, 0, len(h.runs))
	for runID := range h.runs {
		runs = append(runs, runID)
	}
	return runs
}

// HandleProgress upgrades the request and subscribes it to a run's events.
func (h *Hub) HandleProgress(c *gin.Context) {
	runID := c.Param("run_id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run_id is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		runID: runID,
		send:  make(chan []byte, 256),
	}
	select {
	case h.register <- client:
	case <-h.shutdown:
		// Run loop is gone, nobody will take the registration
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
