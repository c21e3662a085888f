package mcp

import (
	"context"
	"sync"

	"github.com/aretw0/vignette/pkg/domain"
)

// Transcript is a presenter that buffers presentations for clients that poll.
// When full, the oldest entries are dropped.
type Transcript struct {
	mu    sync.Mutex
	limit int
	items []domain.Presentation
}

// NewTranscript keeps at most limit presentations; limit <= 0 means 64.
func NewTranscript(limit int) *Transcript {
	if limit <= 0 {
		limit = 64
	}
	return &Transcript{limit: limit}
}

func (t *Transcript) Present(_ context.Context, p domain.Presentation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, p)
	if over := len(t.items) - t.limit; over > 0 {
		t.items = append([]domain.Presentation(nil), t.items[over:]...)
	}
}

// Drain returns the buffered presentations and clears the buffer.
func (t *Transcript) Drain() []domain.Presentation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.items
	t.items = nil
	if out == nil {
		out = []domain.Presentation{}
	}
	return out
}
