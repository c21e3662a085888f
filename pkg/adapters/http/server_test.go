package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/vignette"
	vhttp "github.com/aretw0/vignette/pkg/adapters/http"
	"github.com/aretw0/vignette/pkg/adapters/memory"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	engine  *vignette.Engine
	streams *vhttp.StreamManager
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := dsl.New()
	b.Entity("guard").Name("Gate Guard").
		Page(domain.TriggerConfirm).
		Say("hello", "Guard", "Halt!").
		SetFlag("mark", "met_guard", true)
	b.Entity("chest").
		Page(domain.TriggerConfirm).
		Await("open", "", nil)
	loader, err := b.Build()
	require.NoError(t, err)

	streams := vhttp.NewStreamManager()
	eng, err := vignette.New("",
		vignette.WithLoader(loader),
		vignette.WithFlagStore(memory.NewFlagStore(nil)),
		vignette.WithPresenter(streams),
		vignette.WithLifecycleHooks(streams.Hooks()),
	)
	require.NoError(t, err)

	return &fixture{
		engine:  eng,
		streams: streams,
		handler: vhttp.NewHandler(eng, vhttp.WithStreams(streams), vhttp.WithVersion("1.2.3")),
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func decodeString[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestServer_Health(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)

	w = f.do(t, http.MethodGet, "/info", "")
	assert.Equal(t, "1.2.3", decode[map[string]string](t, w)["version"])
}

func TestServer_ActivationLifecycle(t *testing.T) {
	f := newFixture(t)
	events, cancel := f.streams.Subscribe(vhttp.TopicEngine)
	defer cancel()

	w := f.do(t, http.MethodPost, "/activations", `{"entity":"guard","trigger":"interact"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	id := decode[vhttp.ActivationResponse](t, w).RequestID
	assert.NotEmpty(t, id)

	presented := decodeString[vhttp.Event](t, <-events)
	assert.Equal(t, "presentation", presented.Type)

	status := decode[vignette.Snapshot](t, f.do(t, http.MethodGet, "/status", ""))
	assert.Equal(t, "step_running", status.Status)
	assert.Equal(t, id, status.RequestID)
	assert.Equal(t, domain.SignalAck, status.Awaiting)

	w = f.do(t, http.MethodPost, "/signals/"+domain.SignalAck, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	f.engine.Tick(context.Background())

	status = decode[vignette.Snapshot](t, f.do(t, http.MethodGet, "/status", ""))
	assert.Equal(t, "idle", status.Status)
	assert.True(t, f.engine.Flags().GetFlagState("met_guard"))

	finished := decodeString[vhttp.Event](t, <-events)
	assert.Equal(t, "activation_complete", finished.Type)
}

func TestServer_ExternalCompletion(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusAccepted, f.do(t, http.MethodPost, "/activations", `{"entity":"chest"}`).Code)
	f.engine.Tick(context.Background())
	require.True(t, f.engine.Snapshot().External)

	w := f.do(t, http.MethodPost, "/complete", `{"next":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", decode[vignette.Snapshot](t, w).Status)
}

func TestServer_ConflictsWhenIdle(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/signals/ack", `{"value":1}`).Code)
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/complete", "").Code)
}

func TestServer_RejectsBadActivations(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/activations", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/activations", `{"trigger":"touch"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/activations", `{"entity":"guard","trigger":"shout"}`).Code)
	assert.Zero(t, f.engine.Pending())
}

func TestServer_Flags(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPut, "/flags/door_open", `{"value":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.engine.Flags().GetFlagState("door_open"))

	got := decode[vhttp.FlagValue](t, f.do(t, http.MethodGet, "/flags/door_open", ""))
	assert.Equal(t, vhttp.FlagValue{Name: "door_open", Value: true}, got)

	all := decode[map[string]bool](t, f.do(t, http.MethodGet, "/flags", ""))
	assert.Equal(t, map[string]bool{"door_open": true}, all)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/flags/x", "nope").Code)
}

func TestServer_Entities(t *testing.T) {
	f := newFixture(t)

	ids := decode[[]string](t, f.do(t, http.MethodGet, "/entities", ""))
	assert.Equal(t, []string{"chest", "guard"}, ids)

	spec := decode[domain.DefinitionSpec](t, f.do(t, http.MethodGet, "/entities/guard", ""))
	assert.Equal(t, "Gate Guard", spec.Name)
	require.Len(t, spec.Pages, 1)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/entities/ghost", "").Code)
}

// watchEngine overrides Watch on top of an otherwise unused Engine.
type watchEngine struct {
	vhttp.Engine
	events []string
}

func (m *watchEngine) Watch(context.Context) (<-chan string, error) {
	ch := make(chan string, len(m.events))
	for _, e := range m.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

func TestSubscribeEvents_ContentReload(t *testing.T) {
	handler := vhttp.NewHandler(&watchEngine{events: []string{"guard"}})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "event: ping")
	assert.Contains(t, body, "data: guard")
}

func TestSubscribeEvents_Topic(t *testing.T) {
	streams := vhttp.NewStreamManager()
	srv := httptest.NewServer(vhttp.NewHandler(&watchEngine{}, vhttp.WithStreams(streams)))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?topic="+vhttp.TopicEngine, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	lines := bufio.NewScanner(resp.Body)
	// The ping is written after the subscription is registered.
	require.Equal(t, "data: connected", nextData(t, lines))

	streams.Present(context.Background(), domain.Presentation{Text: "Halt!", Await: domain.SignalAck})
	assert.Contains(t, nextData(t, lines), "Halt!")
}

func nextData(t *testing.T, lines *bufio.Scanner) string {
	t.Helper()
	for lines.Scan() {
		if line := lines.Text(); strings.HasPrefix(line, "data: ") {
			return line
		}
	}
	t.Fatalf("stream ended: %v", lines.Err())
	return ""
}

func TestStreamManager_UnsubscribeIsIdempotent(t *testing.T) {
	sm := vhttp.NewStreamManager()
	ch, cancel := sm.Subscribe("a")
	sm.Broadcast("a", "one")
	assert.Equal(t, "one", <-ch)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	sm.Broadcast("a", "ignored")
}
