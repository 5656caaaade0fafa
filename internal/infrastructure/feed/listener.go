package feed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	domain "github.com/iuridev/sge-messaging-api/internal/domain/messaging"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/metrics"
)

// Channel is the PostgreSQL notification channel new message rows are
// published on.
const Channel = "messaging_new_message"

// Config controls the LISTEN/NOTIFY connection.
type Config struct {
	DSN          string
	MinReconnect time.Duration
	MaxReconnect time.Duration
	PingInterval time.Duration
}

// Listener owns a single LISTEN connection and fans incoming message events
// out to subscribers. Dispatch runs on one goroutine, so each subscriber
// observes events in arrival order.
type Listener struct {
	cfg Config
	log zerolog.Logger

	pq *pq.Listener

	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func(*domain.Message)

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewListener(cfg Config, log zerolog.Logger) *Listener {
	if cfg.MinReconnect <= 0 {
		cfg.MinReconnect = time.Second
	}
	if cfg.MaxReconnect <= 0 {
		cfg.MaxReconnect = 30 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 90 * time.Second
	}
	return &Listener{
		cfg:  cfg,
		log:  log.With().Str("component", "feed").Logger(),
		subs: make(map[uint64]func(*domain.Message)),
		done: make(chan struct{}),
	}
}

// Start opens the LISTEN connection and begins dispatching notifications.
func (l *Listener) Start() error {
	var startErr error
	l.startOnce.Do(func() {
		l.pq = pq.NewListener(l.cfg.DSN, l.cfg.MinReconnect, l.cfg.MaxReconnect, l.onEvent)
		if err := l.pq.Listen(Channel); err != nil {
			if cerr := l.pq.Close(); cerr != nil {
				l.log.Warn().Err(cerr).Msg("failed to close feed connection")
			}
			startErr = err
			return
		}

		l.wg.Add(2)
		go l.dispatchLoop()
		go l.pingLoop()
		l.log.Info().Str("channel", Channel).Msg("feed listener started")
	})
	return startErr
}

// Stop closes the connection and waits for the dispatch goroutines.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
		if l.pq != nil {
			if err := l.pq.Close(); err != nil {
				l.log.Warn().Err(err).Msg("failed to close feed connection")
			}
		}
		l.wg.Wait()
		l.log.Info().Msg("feed listener stopped")
	})
}

// Subscribe registers a handler for incoming messages. The returned function
// removes the subscription; it is safe to call more than once.
func (l *Listener) Subscribe(handler func(*domain.Message)) (func(), error) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = handler
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}, nil
}

func (l *Listener) dispatchLoop() {
	defer l.wg.Done()
	for {
		select {
		case <-l.done:
			return
		case n, ok := <-l.pq.Notify:
			if !ok {
				return
			}
			if n == nil {
				// Reconnect marker from pq. Subscribers re-bootstrap their
				// tallies on resync, so nothing to replay here.
				continue
			}
			metrics.RecordFeedNotification()

			var msg domain.Message
			if err := json.Unmarshal([]byte(n.Extra), &msg); err != nil {
				metrics.RecordFeedDecodeError()
				l.log.Error().Err(err).Msg("failed to decode feed payload")
				continue
			}
			l.deliver(&msg)
		}
	}
}

func (l *Listener) deliver(msg *domain.Message) {
	l.mu.Lock()
	handlers := make([]func(*domain.Message), 0, len(l.subs))
	for _, h := range l.subs {
		handlers = append(handlers, h)
	}
	l.mu.Unlock()

	for _, h := range handlers {
		h(msg)
	}
}

func (l *Listener) pingLoop() {
	defer l.wg.Done()
	ticker := time.NewTicker(l.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			if err := l.pq.Ping(); err != nil {
				l.log.Warn().Err(err).Msg("feed ping failed")
			}
		}
	}
}

func (l *Listener) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventConnected:
		l.log.Info().Msg("feed connected")
	case pq.ListenerEventReconnected:
		l.log.Info().Msg("feed reconnected")
	case pq.ListenerEventDisconnected:
		l.log.Warn().Err(err).Msg("feed disconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		l.log.Warn().Err(err).Msg("feed connection attempt failed")
	}
}
