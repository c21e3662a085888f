package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/vignette/pkg/domain"
)

// TopicEngine carries presentations and activation results.
const TopicEngine = "engine"

// Event is one message on a stream topic.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StreamManager fans events out to SSE subscribers, grouped by topic.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      slog.Default(),
	}
}

// Subscribe registers a buffered channel on topic. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(topic string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- string]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[topic]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, topic)
				}
			}
			close(ch)
		})
	}
}

// Broadcast sends msg to every subscriber of topic. Slow clients drop messages.
func (sm *StreamManager) Broadcast(topic string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "topic", topic)
		}
	}
}

// Publish encodes e as JSON and broadcasts it.
func (sm *StreamManager) Publish(topic string, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "type", e.Type, "error", err)
		return
	}
	sm.Broadcast(topic, string(data))
}

// Present implements domain.Presenter: every presentation is published on TopicEngine.
// Clients answer with POST /signals/{await}.
func (sm *StreamManager) Present(_ context.Context, p domain.Presentation) {
	sm.Publish(TopicEngine, Event{Type: "presentation", Data: p})
}

// Hooks publishes activation results on TopicEngine.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActivationFinish: func(_ context.Context, e *domain.ActivationEvent) {
			sm.Publish(TopicEngine, Event{Type: "activation_complete", Data: e})
		},
	}
}
