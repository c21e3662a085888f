package dsl

import (
	"testing"

	"github.com/aretw0/vignette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_ChainsSteps(t *testing.T) {
	b := New()
	b.Entity("guard").Name("Town Guard").
		Page(domain.TriggerConfirm).Named("default").
		Say("hello", "Guard", "Move along.").
		Page(domain.TriggerConfirm).WhenFlag("quest_done", true).
		Say("thanks", "Guard", "Thank you!").
		SetFlag("reward", "rewarded", true).
		Entity("chest").
		Page(domain.TriggerConfirm).
		Choose("ask", "Open it?", Opt("Yes", "open"), Opt("No", "")).
		Say("leave", "", "You leave it.").End().
		SetFlag("open", "chest_open", true)

	loader, err := b.Build()
	require.NoError(t, err)

	ids, err := loader.ListEntities()
	require.NoError(t, err)
	assert.Equal(t, []string{"chest", "guard"}, ids)

	guard, err := loader.LoadDefinition("guard")
	require.NoError(t, err)
	assert.Equal(t, "Town Guard", guard.Name)
	require.Len(t, guard.Pages, 2)
	assert.Equal(t, "default", guard.Pages[0].Name)
	assert.Equal(t, "reward", guard.Pages[1].Steps[0].Next)
	assert.Equal(t, "", guard.Pages[1].Steps[1].Next)
	assert.Equal(t, []domain.ConditionSpec{Flag("quest_done", true)}, guard.Pages[1].Conditions)

	chest, err := loader.LoadDefinition("chest")
	require.NoError(t, err)
	st := chest.Pages[0].Steps
	require.Len(t, st, 3)
	assert.Equal(t, "leave", st[0].Next, "options without target fall through")
	assert.Equal(t, "", st[1].Next, "End stops the chain")
}

func TestBuilder_Goto(t *testing.T) {
	b := New()
	b.Entity("lever").
		Page(domain.TriggerTouch).
		Wait("pause", 2).Goto("pull").
		Say("skipped", "", "never linked").
		SetFlag("pull", "lever_down", true)

	spec := b.Entity("lever").Build()
	st := spec.Pages[0].Steps
	assert.Equal(t, "pull", st[0].Next)
	assert.Equal(t, "pull", st[1].Next)
	assert.Equal(t, "pause", spec.Pages[0].EntryStep())
}

func TestBuilder_SameEntityTwice(t *testing.T) {
	b := New()
	assert.Same(t, b.Entity("a"), b.Entity("a"))
	assert.Len(t, b.Specs(), 1)
}

func TestConditionHelpers(t *testing.T) {
	c := Not(Any(Flag("a", true), Flag("b", false)))
	assert.Equal(t, "not", c.Kind)
	require.Len(t, c.When, 1)
	assert.Equal(t, "any", c.When[0].Kind)
	assert.Len(t, c.When[0].When, 2)
}
