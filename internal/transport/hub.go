// Package transport connects clients to the controller loop: a TCP line
// server, a WebSocket endpoint and the hub fanning events out to both.
package transport

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/reedboard/internal/obslog"
	"github.com/park285/reedboard/pkg/boarddto"
)

// DefaultBuffer is the per-subscriber event backlog.
const DefaultBuffer = 64

// Submitter executes one command on the controller goroutine.
type Submitter interface {
	Submit(ctx context.Context, cmd boarddto.Command) (boarddto.Response, error)
}

// Subscriber receives events published on a Hub.
type Subscriber struct {
	id      string
	name    string
	ch      chan boarddto.Event
	dropped atomic.Int64
}

func (s *Subscriber) ID() string { return s.id }

// Events is closed when the subscriber is removed.
func (s *Subscriber) Events() <-chan boarddto.Event { return s.ch }

// Dropped counts events discarded because the backlog was full.
func (s *Subscriber) Dropped() int64 { return s.dropped.Load() }

// Hub broadcasts events to every subscriber without blocking the publisher.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = obslog.L()
	}
	return &Hub{subs: make(map[string]*Subscriber), logger: logger}
}

// Subscribe registers a listener. name only labels log lines.
func (h *Hub) Subscribe(name string, buffer int) *Subscriber {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Subscriber{id: uuid.NewString(), name: name, ch: make(chan boarddto.Event, buffer)}
	h.mu.Lock()
	h.subs[s.id] = s
	n := len(h.subs)
	h.mu.Unlock()
	h.logger.Debug("hub_subscribe", zap.String("id", s.id), zap.String("name", name), zap.Int("subscribers", n))
	return s
}

// Unsubscribe removes s and closes its channel. Repeated calls are no-ops.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}
	h.mu.Lock()
	_, ok := h.subs[s.id]
	delete(h.subs, s.id)
	h.mu.Unlock()
	if ok {
		close(s.ch)
	}
}

// Publish implements controller.Notifier.
func (h *Hub) Publish(ev boarddto.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			if s.dropped.Add(1) == 1 {
				h.logger.Warn("hub_backlog_full", zap.String("id", s.id), zap.String("name", s.name), zap.String("event", ev.Type))
			}
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
