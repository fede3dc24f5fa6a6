package socket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/haojie06/visualgen-http/internal/logger"
)

// channel is one subscription to one generation id.
type channel struct {
	manager      *Manager
	generationId string

	ctx    context.Context
	cancel context.CancelFunc

	connMu     sync.Mutex
	conn       *websocket.Conn
	subscribed bool // on conn

	// only touched by the run goroutine
	completed bool

	logger *logger.CustomLogger
}

func newChannel(m *Manager, generationId string) *channel {
	ctx, cancel := context.WithCancel(context.Background())
	return &channel{
		manager:      m,
		generationId: generationId,
		ctx:          ctx,
		cancel:       cancel,
		logger:       m.logger.With("generationId", generationId),
	}
}

func (c *channel) run() {
	failures := 0
	for {
		if c.ctx.Err() != nil {
			return
		}
		conn, _, err := c.manager.dialer.DialContext(c.ctx, c.manager.endpoint(), c.manager.header())
		if err == nil {
			if !c.attach(conn) {
				conn.Close()
				return
			}
			failures = 0
			if !c.manager.config.AwaitConnectFrame {
				err = c.subscribe()
			}
			if err == nil {
				var done bool
				done, err = c.readLoop(conn)
				if done {
					c.detach(conn)
					return
				}
			}
			c.detach(conn)
			if c.ctx.Err() != nil {
				return
			}
		} else if c.ctx.Err() != nil {
			return
		}

		failures++
		c.manager.reportError(c.generationId, err)
		if failures > c.manager.config.ReconnectAttempts {
			c.logger.Errorf("giving up after %d failed connection attempts", failures)
			return
		}
		if !sleepContext(c.ctx, c.manager.config.ReconnectDelay) {
			return
		}
		c.logger.Infof("reconnecting, attempt %d/%d", failures, c.manager.config.ReconnectAttempts)
	}
}

func (c *channel) attach(conn *websocket.Conn) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.ctx.Err() != nil {
		return false
	}
	c.conn = conn
	c.subscribed = false
	return true
}

func (c *channel) detach(conn *websocket.Conn) {
	c.connMu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.connMu.Unlock()
	conn.Close()
}

// readLoop returns done once the generation completed or the channel was stopped.
func (c *channel) readLoop(conn *websocket.Conn) (bool, error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if c.ctx.Err() != nil {
				return true, nil
			}
			return false, fmt.Errorf("read: %w", err)
		}
		if c.ctx.Err() != nil {
			return true, nil
		}
		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.logger.Warnf("dropping malformed frame: %s", err)
			continue
		}
		if c.dispatch(frame) {
			return true, nil
		}
	}
}

func (c *channel) dispatch(frame Frame) (done bool) {
	callbacks := c.manager.callbacks
	switch frame.Event {
	case EventConnect:
		c.logger.Debugf("connected, subscribing")
		if err := c.subscribe(); err != nil {
			c.manager.reportError(c.generationId, err)
		}
	case EventVisualCompleted, EventVisualProcessing:
		var event VisualEvent
		if !c.decode(frame, &event) || !c.owns(event.GenerationId) {
			return false
		}
		event.GenerationId = c.generationId
		if frame.Event == EventVisualCompleted && callbacks.OnVisualCompleted != nil {
			callbacks.OnVisualCompleted(event)
		}
		if frame.Event == EventVisualProcessing && callbacks.OnVisualProcessing != nil {
			callbacks.OnVisualProcessing(event)
		}
	case EventGenerationProgress:
		var event ProgressEvent
		if !c.decode(frame, &event) || !c.owns(event.GenerationId) {
			return false
		}
		event.GenerationId = c.generationId
		if callbacks.OnProgress != nil {
			callbacks.OnProgress(event)
		}
	case EventGenerationComplete:
		var event CompleteEvent
		if !c.decode(frame, &event) || !c.owns(event.GenerationId) {
			return false
		}
		if c.completed {
			return true
		}
		c.completed = true
		event.GenerationId = c.generationId
		if callbacks.OnComplete != nil {
			callbacks.OnComplete(event)
		}
		_ = c.send(EventUnsubscribe)
		return true
	default:
		c.logger.Debugf("ignoring event %q", frame.Event)
	}
	return false
}

// subscribe sends the subscription at most once per connection.
func (c *channel) subscribe() error {
	c.connMu.Lock()
	if c.conn == nil {
		c.connMu.Unlock()
		return fmt.Errorf("subscribe: %w", websocket.ErrCloseSent)
	}
	if c.subscribed {
		c.connMu.Unlock()
		return nil
	}
	err := c.write(c.conn, EventSubscribe)
	c.subscribed = err == nil
	c.connMu.Unlock()
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	if callbacks := c.manager.callbacks; callbacks.OnConnected != nil {
		callbacks.OnConnected(c.generationId)
	}
	return nil
}

func (c *channel) decode(frame Frame, v interface{}) bool {
	if err := json.Unmarshal(frame.Data, v); err != nil {
		c.logger.Warnf("failed to decode %s payload: %s", frame.Event, err)
		return false
	}
	return true
}

// events without a generation id are attributed to this channel
func (c *channel) owns(generationId string) bool {
	return generationId == "" || generationId == c.generationId
}

func (c *channel) send(event string) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn == nil {
		return websocket.ErrCloseSent
	}
	return c.write(c.conn, event)
}

func (c *channel) write(conn *websocket.Conn, event string) error {
	frame, err := newFrame(event, SubscriptionPayload{GenerationId: c.generationId})
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
	return conn.WriteJSON(frame)
}

// stop unsubscribes best-effort and closes the connection without waiting
// for the read goroutine.
func (c *channel) stop() {
	c.cancel()
	c.connMu.Lock()
	conn := c.conn
	c.conn = nil
	if conn != nil {
		if err := c.write(conn, EventUnsubscribe); err != nil {
			c.logger.Debugf("unsubscribe not delivered: %s", err)
		}
	}
	c.connMu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
