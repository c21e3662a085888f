package vignette_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/vignette"
	"github.com/aretw0/vignette/pkg/adapters/memory"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, b *dsl.Builder, opts ...vignette.Option) *vignette.Engine {
	t.Helper()
	loader, err := b.Build()
	require.NoError(t, err)
	eng, err := vignette.New("", append([]vignette.Option{vignette.WithLoader(loader)}, opts...)...)
	require.NoError(t, err)
	return eng
}

func TestEngine_SceneEntryRunsInSubmissionOrder(t *testing.T) {
	b := dsl.New()
	for _, id := range []string{"torch", "door", "elder"} {
		b.Entity(id).Page(domain.TriggerAutomatic).SetFlag("mark", id+"_ran", true).Wait("linger", 2)
	}
	flags := memory.NewFlagStore(nil)
	eng := newEngine(t, b, vignette.WithFlagStore(flags))

	var order []string
	for _, id := range []string{"elder", "torch", "door"} {
		eng.Submit(id, domain.TriggerAutomatic, func() { order = append(order, id) })
	}
	assert.Equal(t, 3, eng.Pending())
	assert.Empty(t, order)

	require.NoError(t, eng.RunUntilIdle(context.Background(), 50))
	assert.Equal(t, []string{"elder", "torch", "door"}, order)

	all, err := flags.ListFlags()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"elder_ran": true, "torch_ran": true, "door_ran": true}, all)
}

func TestEngine_EnterSceneSchedulesEveryEntity(t *testing.T) {
	b := dsl.New()
	b.Entity("b").Page(domain.TriggerAutomatic).SetFlag("s", "b", true)
	b.Entity("a").Page(domain.TriggerAutomatic).SetFlag("s", "a", true)
	b.Entity("c").Page(domain.TriggerConfirm).SetFlag("s", "c", true)
	eng := newEngine(t, b)

	n, err := eng.EnterScene()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, eng.RunUntilIdle(context.Background(), 10))

	assert.True(t, eng.Flags().GetFlagState("a"))
	assert.True(t, eng.Flags().GetFlagState("b"))
	assert.False(t, eng.Flags().GetFlagState("c"), "confirm pages ignore scene entry")
	assert.Equal(t, uint64(3), eng.Snapshot().Completed)
}

func TestEngine_PriorityAndGating(t *testing.T) {
	b := dsl.New()
	b.Entity("guard").
		Page(domain.TriggerConfirm).Named("p1").SetFlag("s", "saw_p1", true).
		Page(domain.TriggerConfirm).Named("p2").WhenFlag("quest_done", true).SetFlag("s", "saw_p2", true)
	eng := newEngine(t, b)

	page, err := eng.Resolve("guard", domain.TriggerConfirm)
	require.NoError(t, err)
	assert.Equal(t, "p1", page.Name)

	eng.Flags().SetFlagState("quest_done", true)
	page, err = eng.Resolve("guard", domain.TriggerConfirm)
	require.NoError(t, err)
	assert.Equal(t, "p2", page.Name)

	eng.Submit("guard", domain.TriggerConfirm, nil)
	eng.Drain(context.Background())
	assert.True(t, eng.Flags().GetFlagState("saw_p2"))
	assert.False(t, eng.Flags().GetFlagState("saw_p1"))
}

func TestEngine_NoMatchStillCompletes(t *testing.T) {
	b := dsl.New()
	b.Entity("rock")
	eng := newEngine(t, b, vignette.WithAutoDrain(true))

	var done int
	for range 3 {
		eng.Submit("rock", domain.TriggerConfirm, func() { done++ })
		eng.Submit("nobody", domain.TriggerConfirm, func() { done++ })
	}
	assert.Equal(t, 6, done)

	page, err := eng.Resolve("rock", domain.TriggerConfirm)
	require.NoError(t, err)
	assert.Nil(t, page)
	page, err = eng.ResolveIdle("rock")
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestEngine_ReentrantActivation(t *testing.T) {
	b := dsl.New()
	b.Entity("lever").Page(domain.TriggerConfirm).
		Activate("open-door", "door", domain.TriggerSystem).
		SetFlag("lever", "lever_pulled", true)
	b.Entity("door").Page(domain.TriggerSystem).
		BranchOnFlag("check", "lever_pulled", true, "", "early").
		SetFlag("open", "door_open", true).End().
		SetFlag("early", "door_opened_early", true)
	eng := newEngine(t, b, vignette.WithAutoDrain(true))

	var order []string
	eng.Submit("lever", domain.TriggerConfirm, func() { order = append(order, "lever") })

	assert.Equal(t, []string{"lever"}, order)
	assert.True(t, eng.Flags().GetFlagState("door_open"), "door runs after the lever page completed")
	assert.False(t, eng.Flags().GetFlagState("door_opened_early"))
}

func TestEngine_MessagesAndChoicesWithPresenter(t *testing.T) {
	b := dsl.New()
	b.Entity("merchant").Page(domain.TriggerConfirm).
		Say("hi", "Merchant", "Welcome!").
		Choose("ask", "Buy a potion?", dsl.Opt("Yes", "buy"), dsl.Opt("No", "bye")).
		SetFlag("buy", "bought_potion", true).Goto("bye").
		Say("bye", "Merchant", "Come again.")

	var out bytes.Buffer
	runner := vignette.NewRunner(strings.NewReader("\n1\n\n"), &out)
	eng := newEngine(t, b, vignette.WithPresenter(runner))

	eng.Submit("merchant", domain.TriggerConfirm, nil)
	require.NoError(t, runner.Run(context.Background(), eng))

	assert.True(t, eng.Flags().GetFlagState("bought_potion"))
	text := out.String()
	assert.Contains(t, text, "Merchant: Welcome!")
	assert.Contains(t, text, "1) Yes")
	assert.Contains(t, text, "Merchant: Come again.")
	assert.True(t, eng.Snapshot().Status == "idle")
}

func TestEngine_HeadlessRunnerPicksFirstOption(t *testing.T) {
	b := dsl.New()
	b.Entity("sign").Page(domain.TriggerConfirm).
		Choose("ask", "Read it?", dsl.Opt("Yes", "read"), dsl.Opt("No", "")).End().
		SetFlag("read", "sign_read", true)

	var out bytes.Buffer
	runner := &vignette.Runner{Output: &out, Headless: true}
	eng := newEngine(t, b, vignette.WithPresenter(runner))

	eng.Submit("sign", domain.TriggerConfirm, nil)
	require.NoError(t, runner.Run(context.Background(), eng))
	assert.True(t, eng.Flags().GetFlagState("sign_read"))
}

func TestRunner_StopsAtTickBudget(t *testing.T) {
	b := dsl.New()
	b.Entity("clock").Page(domain.TriggerAutomatic).Wait("tick", 100)

	var out bytes.Buffer
	runner := &vignette.Runner{Output: &out, Headless: true, MaxTicks: 5}
	eng := newEngine(t, b, vignette.WithPresenter(runner))

	eng.Submit("clock", domain.TriggerAutomatic, nil)
	err := runner.Run(context.Background(), eng)
	assert.ErrorIs(t, err, vignette.ErrTickBudget)
}

func TestEngine_ExternalCompletion(t *testing.T) {
	b := dsl.New()
	b.Entity("boss").Page(domain.TriggerTouch).
		Await("battle", "", nil).End().
		SetFlag("won", "boss_defeated", true).End().
		SetFlag("lost", "game_over", true)
	eng := newEngine(t, b)
	ctx := context.Background()

	eng.Submit("boss", domain.TriggerTouch, nil)
	err := eng.RunUntilIdle(ctx, 5)
	assert.ErrorIs(t, err, vignette.ErrTickBudget)
	assert.True(t, eng.Snapshot().External)

	require.NoError(t, eng.CompleteStep(ctx, "won"))
	assert.True(t, eng.Flags().GetFlagState("boss_defeated"))
	assert.False(t, eng.Flags().GetFlagState("game_over"))
	assert.ErrorIs(t, eng.CompleteStep(ctx, "won"), vignette.ErrNoActivation)
}

func TestEngine_InvalidateReloadsContent(t *testing.T) {
	loader, err := memory.NewFromSpecs(domain.DefinitionSpec{ID: "npc", Pages: []domain.PageSpec{{
		Trigger: "confirm",
		Steps:   []domain.StepSpec{{ID: "a", Kind: "set_flag", Args: map[string]any{"name": "v1", "value": true}}},
	}}})
	require.NoError(t, err)
	eng, err := vignette.New("", vignette.WithLoader(loader), vignette.WithAutoDrain(true))
	require.NoError(t, err)

	eng.Submit("npc", domain.TriggerConfirm, nil)
	assert.True(t, eng.Flags().GetFlagState("v1"))

	loader.Put(domain.DefinitionSpec{ID: "npc", Pages: []domain.PageSpec{{
		Trigger: "confirm",
		Steps:   []domain.StepSpec{{ID: "a", Kind: "set_flag", Args: map[string]any{"name": "v2", "value": true}}},
	}}})
	eng.Submit("npc", domain.TriggerConfirm, nil)
	assert.False(t, eng.Flags().GetFlagState("v2"), "definition is stable until invalidated")

	eng.Invalidate("npc")
	eng.Submit("npc", domain.TriggerConfirm, nil)
	assert.True(t, eng.Flags().GetFlagState("v2"))
}

func TestEngine_LoamContent(t *testing.T) {
	dir := t.TempDir()
	doc := `---
id: sign
pages:
  - trigger: confirm
    steps:
      - id: read
        kind: set_flag
        args:
          name: sign_read
          value: true
---
A weathered sign.
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sign.md"), []byte(doc), 0o644))

	eng, err := vignette.New(dir, vignette.WithAutoDrain(true))
	require.NoError(t, err)

	specs, err := eng.Inspect()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "sign", specs[0].ID)

	eng.Submit("sign", domain.TriggerConfirm, nil)
	assert.True(t, eng.Flags().GetFlagState("sign_read"))
}

func TestNew_RequiresContent(t *testing.T) {
	_, err := vignette.New("")
	assert.Error(t, err)

	_, err = vignette.New("", vignette.WithLoader(nil))
	assert.Error(t, err)
}
