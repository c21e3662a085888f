package compiler_test

import (
	"testing"

	"github.com/aretw0/vignette/internal/compiler"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapFlags map[string]bool

func (m mapFlags) GetFlagState(name string) bool     { return m[name] }
func (m mapFlags) SetFlagState(name string, v bool) { m[name] = v }

const guardYAML = `
id: guard
pages:
  - name: default
    trigger: confirm
    steps:
      - id: hello
        kind: message
        args: {text: "Move along."}
  - name: after-quest
    trigger: action
    conditions:
      - kind: flag
        params: {name: quest_done}
    start: thanks
    steps:
      - id: unused
        kind: message
      - id: thanks
        kind: message
        args: {text: "Thank you!"}
        next: reward
      - id: reward
        kind: set_flag
        args: {name: rewarded, value: true}
  - trigger: sideways
    steps:
      - id: x
        kind: message
`

func TestParseAndCompile(t *testing.T) {
	spec, err := compiler.NewParser().Parse([]byte(guardYAML), "")
	require.NoError(t, err)
	assert.Equal(t, "guard", spec.ID)
	require.Len(t, spec.Pages, 3)

	flags := mapFlags{}
	def := compiler.New(nil, flags, nil).Compile(spec)
	assert.False(t, def.Materialized())

	pages := def.Pages()
	require.Len(t, pages, 3)
	assert.Nil(t, pages[2], "unknown trigger leaves a nil entry")

	quest := pages[1]
	assert.Equal(t, domain.TriggerConfirm, quest.Trigger)
	assert.Equal(t, "thanks", quest.Start)
	assert.False(t, quest.ConditionsHold())
	flags["quest_done"] = true
	assert.True(t, quest.ConditionsHold())

	assert.Equal(t, 2, quest.Gather(nil), "unreachable steps are not gathered")
	_, ok := quest.Step("unused")
	assert.False(t, ok)
}

func TestParse_FallbackID(t *testing.T) {
	spec, err := compiler.NewParser().Parse([]byte(`{"pages": []}`), "chest")
	require.NoError(t, err)
	assert.Equal(t, "chest", spec.ID)

	_, err = compiler.NewParser().Parse([]byte(`pages: []`), "")
	assert.Error(t, err)

	_, err = compiler.NewParser().Parse([]byte(`pages: [`), "x")
	assert.Error(t, err)
}

func TestCompilePage_BadStepKindSkippedAtGather(t *testing.T) {
	c := compiler.New(nil, mapFlags{}, nil)
	page, err := c.CompilePage(0, domain.PageSpec{
		Trigger: "touch",
		Steps:   []domain.StepSpec{{ID: "a", Kind: "explode"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Gather(nil))
	assert.Nil(t, page.StartStep())
}
