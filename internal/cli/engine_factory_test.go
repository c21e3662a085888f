package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/vignette/internal/config"
	"github.com/aretw0/vignette/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneYAML = `
scene: gatehouse
flags:
  gate_locked: true
entities:
  - id: guard
    pages:
      - trigger: automatic
        steps:
          - id: hello
            kind: message
            args: {speaker: Guard, text: "Halt!"}
            next: mark
          - id: mark
            kind: set_flag
            args: {name: met_guard, value: true}
      - trigger: automatic
        conditions:
          - kind: flag
            params: {name: met_guard}
        steps:
          - id: again
            kind: set_flag
            args: {name: guard_bored, value: true}
  - id: chest
    pages:
      - trigger: confirm
        steps:
          - id: open
            kind: set_flag
            args: {name: chest_open, value: true}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sceneYAML), 0o644))
	return &config.Config{
		Content: config.ContentConfig{Scene: path},
		Flags:   config.FlagsConfig{Backend: config.BackendMemory},
		Engine:  config.EngineConfig{TickInterval: time.Millisecond, MaxTicks: 100},
	}
}

func TestNewHost_SceneSeedsFlags(t *testing.T) {
	host, err := NewHost(context.Background(), testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer host.Close()

	require.NotNil(t, host.Scene)
	assert.Equal(t, "gatehouse", host.Scene.Scene.Name)
	assert.True(t, host.Engine.Flags().GetFlagState("gate_locked"))
	ids, err := host.Engine.Entities()
	require.NoError(t, err)
	assert.Equal(t, []string{"chest", "guard"}, ids)
}

func TestNewHost_RedisKeepsExistingFlags(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Flags = config.FlagsConfig{Backend: config.BackendRedis, Redis: config.RedisConfig{Addr: mr.Addr(), Prefix: "test:"}}

	first, err := NewHost(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	first.Flags.SetFlagState("gate_locked", false)
	require.NoError(t, first.Close())

	second, err := NewHost(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer second.Close()
	assert.False(t, second.Flags.GetFlagState("gate_locked"), "seeding must not overwrite durable state")
}

func TestNewHost_SQLiteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Flags = config.FlagsConfig{Backend: config.BackendSQLite, SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "flags.db")}}

	host, err := NewHost(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	assert.True(t, host.Flags.GetFlagState("gate_locked"))
	assert.NoError(t, host.Close())
}

func TestNewHost_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Flags.Backend = "etcd"
	_, err := NewHost(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Content.Scene = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = NewHost(context.Background(), cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestExecute_HeadlessScene(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		Config:   testConfig(t),
		Headless: true,
		Output:   &out,
	}, logging.NewNop())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Guard: Halt!")
}

func TestExecute_InteractiveAcknowledges(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		Config:   testConfig(t),
		Entities: []string{"guard"},
		Input:    strings.NewReader("\n"),
		Output:   &out,
	}, logging.NewNop())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Halt!")
	assert.Contains(t, out.String(), "Scene idle after 1 activations.")
}

func TestExecute_RejectsWatchWithHeadless(t *testing.T) {
	err := Execute(context.Background(), RunOptions{Config: testConfig(t), Headless: true, Watch: true}, logging.NewNop())
	assert.Error(t, err)
}

func TestTickLoop_RunsQueuedActivations(t *testing.T) {
	host, err := NewHost(context.Background(), testConfig(t), logging.NewNop())
	require.NoError(t, err)
	defer host.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go TickLoop(ctx, host.Engine, time.Millisecond)

	done := make(chan struct{})
	host.Engine.Submit("chest", "confirm", func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("activation never completed")
	}
	assert.True(t, host.Flags.GetFlagState("chest_open"))
}
