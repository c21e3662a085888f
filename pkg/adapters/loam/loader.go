package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/loam"
	"github.com/aretw0/vignette/pkg/domain"
)

// Loader adapts a Loam repository to the DefinitionLoader port.
// Each document is one entity: its frontmatter carries the pages and its body, if any,
// is kept as the entity description. A frontmatter id overrides the document path as the
// entity ID; the loader keeps an index between the two.
type Loader struct {
	Repo *loam.TypedRepository[EntityMetadata]

	mu     sync.Mutex
	byID   map[string]string // entity ID -> document key
	byPath map[string]string // document key -> entity ID
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[EntityMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// LoadDefinition reads the document of the entity, rebuilding the index once when the
// entity is unknown so documents added since the last listing are found.
func (l *Loader) LoadDefinition(entityID string) (*domain.DefinitionSpec, error) {
	ctx := context.Background()

	path, ok := l.lookup(entityID)
	if !ok {
		if _, err := l.ListEntities(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domain.ErrDefinitionNotFound, entityID, err)
		}
		if path, ok = l.lookup(entityID); !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, entityID)
		}
	}

	doc, err := l.Repo.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrDefinitionNotFound, entityID, err)
	}

	name := doc.Data.Name
	if name == "" {
		name = firstLine(doc.Content)
	}
	return &domain.DefinitionSpec{ID: entityID, Name: name, Pages: doc.Data.Pages}, nil
}

// ListEntities returns the entity IDs in the repository, rejecting duplicates,
// and refreshes the ID index.
func (l *Loader) ListEntities() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	byID := make(map[string]string, len(docs))
	byPath := make(map[string]string, len(docs))
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		path := trimExtension(doc.ID)
		id := path
		if doc.Data.ID != "" {
			id = trimExtension(doc.Data.ID)
		}

		if existingPath, ok := byID[id]; ok {
			return nil, fmt.Errorf("collision detected: entity '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		byID[id] = path
		byPath[path] = id
		ids = append(ids, id)
	}

	l.mu.Lock()
	l.byID, l.byPath = byID, byPath
	l.mu.Unlock()
	return ids, nil
}

// Watch implements ports.Watchable. It emits the entity ID of every changed document;
// when a change renames the entity, both the old and the new ID are emitted.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				for _, id := range l.changedIDs(trimExtension(evt.ID)) {
					select {
					case ch <- id:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch, nil
}

// changedIDs maps a changed document to the entity IDs it was and is now known by.
func (l *Loader) changedIDs(path string) []string {
	before, known := l.entityAt(path)
	if _, err := l.ListEntities(); err != nil {
		// Listing fails on collisions while a file is half edited; keep the old index.
		if known {
			return []string{before}
		}
		return []string{path}
	}
	after, exists := l.entityAt(path)

	switch {
	case known && exists && before != after:
		return []string{before, after}
	case known:
		return []string{before}
	case exists:
		return []string{after}
	}
	return []string{path}
}

func (l *Loader) lookup(entityID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	path, ok := l.byID[entityID]
	return path, ok
}

func (l *Loader) entityAt(path string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.byPath[path]
	return id, ok
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

func firstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "# "))
		if line != "" {
			return line
		}
	}
	return ""
}
