package tracker

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/haojie06/visualgen-http/internal/logger"
	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/haojie06/visualgen-http/internal/socket"
)

// Backend is the part of the REST client the session drives.
type Backend interface {
	AnalyzeProduct(ctx context.Context, id string, force bool) (*model.Product, error)
	AnalyzeCollection(ctx context.Context, id string, force bool) (*model.Collection, error)
	CreateGeneration(ctx context.Context, req model.CreateGenerationRequest) (*model.Generation, error)
	MergePrompts(ctx context.Context, id string, req model.MergePromptsRequest) (*model.MergePromptsResponse, error)
	ExecuteGeneration(ctx context.Context, id string, req model.ExecuteGenerationRequest) (*model.ExecuteGenerationResponse, error)
	GenerationStatus(ctx context.Context, id string) (*model.GenerationStatusResponse, error)
}

// Watcher follows the real-time events of one generation id at a time.
type Watcher interface {
	Watch(generationId string)
	Close()
}

// Notifier is told about every generation that reached a terminal state.
type Notifier interface {
	GenerationFinished(ctx context.Context, snapshot Snapshot) error
}

type Config struct {
	PollInterval time.Duration

	SafetyTimeout time.Duration

	DefaultShotTypes []string
}

type Option func(*Session)

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

var backgroundPool gopool.Pool

func init() {
	backgroundPool = gopool.NewPool("tracker.BackgroundPool", math.MaxInt32, gopool.NewConfig())
	backgroundPool.SetPanicHandler(func(ctx context.Context, i interface{}) {
		logger.Errorf("panic in tracker background task: %v", i)
	})
}

// Session owns the generation state of one dashboard user. All mutations run
// on a single loop goroutine; REST calls, socket events and poll results
// reach it as commands.
type Session struct {
	config   Config
	backend  Backend
	watcher  Watcher
	notifier Notifier

	st   state
	cmds chan func(*state)
	done chan struct{}
	once sync.Once

	subMu       sync.Mutex
	subscribers map[chan Snapshot]struct{}

	logger *logger.CustomLogger
}

// New starts a session. newWatcher receives the callbacks the real-time
// channel must deliver to.
func New(backend Backend, newWatcher func(socket.Callbacks) Watcher, config Config, opts ...Option) *Session {
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Second
	}
	if config.SafetyTimeout <= 0 {
		config.SafetyTimeout = 10 * time.Minute
	}
	s := &Session{
		config:      config,
		backend:     backend,
		st:          newState(),
		cmds:        make(chan func(*state)),
		done:        make(chan struct{}),
		subscribers: make(map[chan Snapshot]struct{}),
		logger:      logger.NewCustomLogger().With("component", "tracker"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.watcher = newWatcher(s.socketCallbacks())
	go s.loop()
	return s
}

func (s *Session) loop() {
	for {
		select {
		case cmd := <-s.cmds:
			cmd(&s.st)
			s.publish(s.st.snapshot())
		case <-s.done:
			s.st.run.stop()
			return
		}
	}
}

// do runs f on the loop goroutine and waits for its result.
func (s *Session) do(f func(st *state) error) error {
	result := make(chan error, 1)
	select {
	case s.cmds <- func(st *state) { result <- f(st) }:
	case <-s.done:
		return ErrClosed
	}
	select {
	case err := <-result:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// post queues f without waiting, used by event sources.
func (s *Session) post(f func(st *state)) {
	select {
	case s.cmds <- f:
	case <-s.done:
	}
}

func (s *Session) Snapshot() Snapshot {
	var snap Snapshot
	if err := s.do(func(st *state) error {
		snap = st.snapshot()
		return nil
	}); err != nil {
		return Snapshot{Phase: PhaseIdle}
	}
	return snap
}

// Subscribe streams a snapshot after every state change. Slow readers only
// see the latest snapshot.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()
	cancel := func() {
		s.subMu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Session) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Close stops the loop, the socket channel and any poller.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		s.watcher.Close()
		s.subMu.Lock()
		for ch := range s.subscribers {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.subMu.Unlock()
	})
}

func (s *Session) background(ctx context.Context, f func()) {
	backgroundPool.CtxGo(ctx, f)
}
