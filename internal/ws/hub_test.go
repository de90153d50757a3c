package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sitesmith/internal/pipeline"
)

func newTestServer(t *testing.T) (*Hub, string) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "test")
	gin.SetMode(gin.TestMode)

	hub := NewHub(zap.NewNop())
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	router := gin.New()
	router.GET("/ws/progress/:run_id", hub.HandleProgress)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubDeliversRunEvents(t *testing.T) {
	hub, base := newTestServer(t)

	conn := dial(t, base+"/ws/progress/run-1")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Publish("run-1", pipeline.Event{
		Type:   pipeline.EventStepCompleted,
		Step:   pipeline.StepHTML,
		File:   "index.html",
		Source: pipeline.SourceProvider,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"step_completed"`)
	assert.Contains(t, string(data), `"file":"index.html"`)
	assert.Contains(t, string(data), `"source":"provider"`)
}

func TestHubScopesEventsToRun(t *testing.T) {
	hub, base := newTestServer(t)

	connA := dial(t, base+"/ws/progress/run-a")
	connB := dial(t, base+"/ws/progress/run-b")
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		time.Second, 10*time.Millisecond)

	hub.Publish("run-b", pipeline.Event{Type: pipeline.EventRunCompleted, Outcome: "provider"})

	connB.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := connB.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"run_completed"`)

	// The other run's subscriber must see nothing
	connA.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = connA.ReadMessage()
	assert.Error(t, err)
}

func TestHubRejectsSubscribersAfterShutdown(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	gin.SetMode(gin.TestMode)

	hub := NewHub(zap.NewNop())
	go hub.Run()

	router := gin.New()
	router.GET("/ws/progress/:run_id", hub.HandleProgress)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	base := "ws" + strings.TrimPrefix(srv.URL, "http")

	hub.Shutdown()

	// A late subscriber gets its connection closed instead of parking the
	// handler on a register channel nobody reads anymore.
	conn, resp, err := websocket.DefaultDialer.Dial(base+"/ws/progress/run-late", nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "the hub hangs up on subscribers arriving after shutdown")
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubDropsDisconnectedSubscribers(t *testing.T) {
	hub, base := newTestServer(t)

	conn := dial(t, base+"/ws/progress/run-x")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"run-x"}, hub.ActiveRuns())

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		time.Second, 10*time.Millisecond)
	assert.Empty(t, hub.ActiveRuns())
}
