package socket

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/haojie06/visualgen-http/internal/logger"
)

// Callbacks receive the typed server events. They run on the channel's
// read goroutine and must not block for long.
type Callbacks struct {
	OnVisualCompleted  func(VisualEvent)
	OnVisualProcessing func(VisualEvent)
	OnProgress         func(ProgressEvent)
	OnComplete         func(CompleteEvent)
	OnConnected        func(generationId string)
	OnError            func(generationId string, err error)
}

type Config struct {
	URL string

	Namespace string

	// consecutive failed connection attempts before the channel gives up
	ReconnectAttempts int

	ReconnectDelay time.Duration

	WriteTimeout time.Duration

	// subscribe on the server's connect frame instead of right after the dial
	AwaitConnectFrame bool
}

// Dialer is satisfied by *websocket.Dialer.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

type TokenSource interface {
	Token() (string, error)
}

type Option func(*Manager)

func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

func WithTokenSource(ts TokenSource) Option {
	return func(m *Manager) { m.tokens = ts }
}

// Manager keeps at most one live connection, scoped to the generation id it
// currently watches.
type Manager struct {
	config    Config
	callbacks Callbacks
	dialer    Dialer
	tokens    TokenSource

	mu      sync.Mutex
	current *channel

	errMu     sync.RWMutex
	lastError string

	logger *logger.CustomLogger
}

func NewManager(config Config, callbacks Callbacks, opts ...Option) *Manager {
	if config.Namespace == "" {
		config.Namespace = "generation"
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	m := &Manager{
		config:    config,
		callbacks: callbacks,
		dialer:    websocket.DefaultDialer,
		logger:    logger.NewCustomLogger().With("component", "socket"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Watch switches the manager to generationId. The previous channel, if any,
// is unsubscribed and torn down. An empty id only tears down.
func (m *Manager) Watch(generationId string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current.generationId == generationId {
		return
	}
	if m.current != nil {
		m.current.stop()
		m.current = nil
	}
	if generationId == "" {
		return
	}
	m.setLastError("")
	ch := newChannel(m, generationId)
	m.current = ch
	go ch.run()
}

func (m *Manager) GenerationId() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.generationId
}

func (m *Manager) Close() {
	m.Watch("")
}

func (m *Manager) LastError() string {
	m.errMu.RLock()
	defer m.errMu.RUnlock()
	return m.lastError
}

func (m *Manager) setLastError(message string) {
	m.errMu.Lock()
	m.lastError = message
	m.errMu.Unlock()
}

func (m *Manager) endpoint() string {
	return strings.TrimRight(m.config.URL, "/") + "/" + strings.Trim(m.config.Namespace, "/")
}

func (m *Manager) header() http.Header {
	header := http.Header{}
	if m.tokens == nil {
		return header
	}
	token, err := m.tokens.Token()
	if err != nil {
		m.logger.Warnf("failed to load token for socket: %s", err)
		return header
	}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return header
}

func (m *Manager) reportError(generationId string, err error) {
	m.setLastError(err.Error())
	m.logger.Warnf("generation %s socket error: %s", generationId, err)
	if m.callbacks.OnError != nil {
		m.callbacks.OnError(generationId, err)
	}
}
