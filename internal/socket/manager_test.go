package socket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	*httptest.Server
	conns  chan *websocket.Conn
	frames chan Frame
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{
		conns:  make(chan *websocket.Conn, 4),
		frames: make(chan Frame, 32),
	}
	upgrader := websocket.Upgrader{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generation", r.URL.Path)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.conns <- conn
		for {
			var frame Frame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			fs.frames <- frame
		}
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) wsURL() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

func (fs *fakeServer) nextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-fs.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection")
	}
	return nil
}

func (fs *fakeServer) nextFrame(t *testing.T) (string, string) {
	t.Helper()
	select {
	case frame := <-fs.frames:
		var payload SubscriptionPayload
		require.NoError(t, json.Unmarshal(frame.Data, &payload))
		return frame.Event, payload.GenerationId
	case <-time.After(2 * time.Second):
		t.Fatal("no frame")
	}
	return "", ""
}

func push(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	frame, err := newFrame(event, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(frame))
}

func TestManagerSubscribesAndDispatches(t *testing.T) {
	fs := newFakeServer(t)

	visuals := make(chan VisualEvent, 8)
	completes := make(chan CompleteEvent, 2)
	var progressCount int32
	m := NewManager(Config{URL: fs.wsURL(), Namespace: "generation", AwaitConnectFrame: true}, Callbacks{
		OnVisualCompleted: func(e VisualEvent) { visuals <- e },
		OnProgress:        func(ProgressEvent) { atomic.AddInt32(&progressCount, 1) },
		OnComplete:        func(e CompleteEvent) { completes <- e },
	})
	defer m.Close()

	m.Watch("g1")
	conn := fs.nextConn(t)
	defer conn.Close()
	push(t, conn, EventConnect, struct{}{})

	event, id := fs.nextFrame(t)
	assert.Equal(t, EventSubscribe, event)
	assert.Equal(t, "g1", id)

	push(t, conn, EventVisualCompleted, VisualEvent{GenerationId: "g1", Index: 0, Type: "duo", Status: model.GenerationStatusCompleted, ImageURL: "https://img/1.png"})
	push(t, conn, EventVisualCompleted, VisualEvent{GenerationId: "other", Index: 1, Type: "solo", Status: model.GenerationStatusCompleted})
	push(t, conn, EventGenerationProgress, ProgressEvent{GenerationId: "g1", Completed: 1, Total: 3})
	push(t, conn, EventGenerationComplete, CompleteEvent{GenerationId: "g1", Completed: 3, Total: 3})
	// the client may already have hung up
	duplicate, _ := newFrame(EventGenerationComplete, CompleteEvent{GenerationId: "g1", Completed: 3, Total: 3})
	_ = conn.WriteJSON(duplicate)

	select {
	case e := <-visuals:
		assert.Equal(t, "duo", e.Type)
		assert.Equal(t, "https://img/1.png", e.Visual().ImageURL)
	case <-time.After(2 * time.Second):
		t.Fatal("no visual event")
	}
	select {
	case e := <-completes:
		assert.Equal(t, 3, e.Completed)
	case <-time.After(2 * time.Second):
		t.Fatal("no complete event")
	}

	event, id = fs.nextFrame(t)
	assert.Equal(t, EventUnsubscribe, event)
	assert.Equal(t, "g1", id)

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, visuals, "events for other generations are dropped")
	assert.Empty(t, completes, "complete fires once")
	assert.Equal(t, int32(1), atomic.LoadInt32(&progressCount))
}

func TestManagerSwitchesGeneration(t *testing.T) {
	fs := newFakeServer(t)
	connected := make(chan string, 4)
	m := NewManager(Config{URL: fs.wsURL(), AwaitConnectFrame: true}, Callbacks{
		OnConnected: func(id string) { connected <- id },
	})
	defer m.Close()

	m.Watch("g1")
	first := fs.nextConn(t)
	defer first.Close()
	push(t, first, EventConnect, struct{}{})
	event, id := fs.nextFrame(t)
	require.Equal(t, EventSubscribe, event)
	require.Equal(t, "g1", id)
	assert.Equal(t, "g1", <-connected)

	m.Watch("g1")
	assert.Equal(t, "g1", m.GenerationId())

	m.Watch("g2")
	event, id = fs.nextFrame(t)
	assert.Equal(t, EventUnsubscribe, event)
	assert.Equal(t, "g1", id)

	second := fs.nextConn(t)
	defer second.Close()
	push(t, second, EventConnect, struct{}{})
	event, id = fs.nextFrame(t)
	assert.Equal(t, EventSubscribe, event)
	assert.Equal(t, "g2", id)
	assert.Equal(t, "g2", m.GenerationId())

	m.Watch("")
	event, id = fs.nextFrame(t)
	assert.Equal(t, EventUnsubscribe, event)
	assert.Equal(t, "g2", id)
	assert.Empty(t, m.GenerationId())
}

func TestManagerSubscribesRightAfterDial(t *testing.T) {
	fs := newFakeServer(t)
	connected := make(chan string, 2)
	dialer := &websocket.Dialer{HandshakeTimeout: time.Second}
	m := NewManager(Config{URL: fs.wsURL()}, Callbacks{
		OnConnected: func(id string) { connected <- id },
	}, WithDialer(dialer))
	defer m.Close()

	m.Watch("g1")
	conn := fs.nextConn(t)
	defer conn.Close()

	event, id := fs.nextFrame(t)
	assert.Equal(t, EventSubscribe, event)
	assert.Equal(t, "g1", id)
	assert.Equal(t, "g1", <-connected)

	// a late connect frame does not subscribe twice
	push(t, conn, EventConnect, struct{}{})
	select {
	case frame := <-fs.frames:
		t.Fatalf("unexpected frame %q", frame.Event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManagerResubscribesAfterReconnect(t *testing.T) {
	fs := newFakeServer(t)
	var failures int32
	m := NewManager(Config{
		URL:               fs.wsURL(),
		ReconnectAttempts: 3,
		ReconnectDelay:    10 * time.Millisecond,
		AwaitConnectFrame: true,
	}, Callbacks{
		OnError: func(string, error) { atomic.AddInt32(&failures, 1) },
	})
	defer m.Close()

	m.Watch("g1")
	first := fs.nextConn(t)
	push(t, first, EventConnect, struct{}{})
	event, id := fs.nextFrame(t)
	require.Equal(t, EventSubscribe, event)
	require.Equal(t, "g1", id)

	require.NoError(t, first.Close())

	second := fs.nextConn(t)
	defer second.Close()
	push(t, second, EventConnect, struct{}{})
	event, id = fs.nextFrame(t)
	assert.Equal(t, EventSubscribe, event)
	assert.Equal(t, "g1", id)
	assert.Equal(t, int32(1), atomic.LoadInt32(&failures))
	assert.NotEmpty(t, m.LastError())
}

func TestManagerGivesUpAfterBoundedRetries(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	var failures int32
	m := NewManager(Config{URL: url, ReconnectAttempts: 2, ReconnectDelay: 10 * time.Millisecond}, Callbacks{
		OnError: func(string, error) { atomic.AddInt32(&failures, 1) },
	})
	defer m.Close()
	m.Watch("g1")

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&failures) == 3 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&failures))
	assert.NotEmpty(t, m.LastError())
}
