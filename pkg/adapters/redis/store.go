package redis

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix  = "vignette:"
	defaultTimeout = 2 * time.Second
)

// FlagStore implements ports.FlagStore on Redis, so several hosts can share one
// save slot's flags. Each flag is a string key ("1"/"0"); a set indexes the names.
type FlagStore struct {
	client  *backend.Client
	prefix  string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the FlagStore.
type Option func(*FlagStore)

// WithPrefix sets the key prefix (default "vignette:").
func WithPrefix(prefix string) Option {
	return func(s *FlagStore) {
		s.prefix = prefix
	}
}

// WithTimeout bounds each Redis round trip (default 2s).
func WithTimeout(d time.Duration) Option {
	return func(s *FlagStore) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for unknown flags and backend errors.
func WithLogger(logger *slog.Logger) Option {
	return func(s *FlagStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New connects to addr and returns a store.
func New(addr, password string, db int, opts ...Option) *FlagStore {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a store on an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *FlagStore {
	s := &FlagStore{
		client:  client,
		prefix:  defaultPrefix,
		timeout: defaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks connectivity.
func (s *FlagStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client.
func (s *FlagStore) Close() error {
	return s.client.Close()
}

// GetFlagState reads a flag. Unknown flags and backend errors read as false and are logged.
func (s *FlagStore) GetFlagState(name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	val, err := s.client.Get(ctx, s.key(name)).Result()
	if errors.Is(err, backend.Nil) {
		s.logger.Warn("unknown flag, defaulting to false", "flag", name)
		return false
	}
	if err != nil {
		s.logger.Error("redis flag read failed", "flag", name, "err", err)
		return false
	}
	return val == "1"
}

// SetFlagState writes a flag and records its name in the index.
func (s *FlagStore) SetFlagState(name string, value bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	encoded := "0"
	if value {
		encoded = "1"
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(name), encoded, 0)
	pipe.SAdd(ctx, s.indexKey(), name)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("redis flag write failed", "flag", name, "err", err)
	}
}

// ListFlags returns every indexed flag.
func (s *FlagStore) ListFlags() (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(names))
	if len(names) == 0 {
		return out, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = s.key(n)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		if str, ok := v.(string); ok {
			out[names[i]] = str == "1"
		}
	}
	return out, nil
}

// Reset deletes every flag under the prefix.
func (s *FlagStore) Reset(ctx context.Context) error {
	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return err
	}
	keys := []string{s.indexKey()}
	for _, n := range names {
		keys = append(keys, s.key(n))
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *FlagStore) key(name string) string {
	return s.prefix + "flag:" + strings.TrimSpace(name)
}

func (s *FlagStore) indexKey() string {
	return s.prefix + "flags"
}
