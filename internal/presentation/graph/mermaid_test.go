package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/vignette/internal/presentation/graph"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/dsl"
	"github.com/stretchr/testify/assert"
)

func specs() []domain.DefinitionSpec {
	b := dsl.New()
	b.Entity("gate-guard").Name("Guard").
		Page(domain.TriggerConfirm).Named("greet").
		Say("hello", "Guard", "Halt!").
		Choose("ask", "Pass?", dsl.Opt("Yes", "open"), dsl.Opt("No", "")).
		Wait("pause", 3).
		Activate("open", "gate", domain.TriggerSystem).
		Page(domain.TriggerConfirm).WhenFlag("passed", true).
		BranchOnFlag("check", "gate_open", true, "bye", "").
		Say("bye", "", "Move along")
	b.Entity("gate").Page(domain.TriggerSystem).Await("lift", "lifted", map[string]string{"yes": "done", "no": ""}).SetFlag("done", "gate_open", true)
	return b.Specs()
}

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(specs(), nil)

	for _, want := range []string{
		"graph TD",
		`subgraph gate_guard["gate-guard (Guard)"]`,
		`gate_guard_p0{{"greet<br/>on confirm"}}`,
		`gate_guard_p1{{"page-2<br/>on confirm<br/>1 conditions"}}`,
		"gate_guard_p0 --> gate_guard_p0_hello",
		`gate_guard_p0_hello[/"hello<br/><i>message</i>"/]`,
		`gate_guard_p0_ask{"ask<br/><i>choice</i>"}`,
		`gate_guard_p0_ask -- "Yes" --> gate_guard_p0_open`,
		`gate_guard_p0_ask -- "No" --> gate_guard_p0_pause`,
		`gate_guard_p0_pause(("pause<br/><i>wait</i>"))`,
		`gate_guard_p0_open[["open<br/><i>activate</i>"]]`,
		`gate_guard_p0_open -. "system" .-> gate`,
		`gate_guard_p1_check -- "then" --> gate_guard_p1_bye`,
		`gate_guard_p1_check -- "else" --> gate_guard_p1_bye`,
		`gate_p0_lift(["lift<br/><i>await</i>"])`,
		`gate_p0_lift -- "yes" --> gate_p0_done`,
		"gate_p0_lift --> gate_p0_done",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef current")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	out := graph.GenerateMermaid(specs(), &graph.Overlay{Entity: "gate-guard", Page: "greet", Step: "ask"})
	assert.Contains(t, out, "classDef current")
	assert.True(t, strings.HasSuffix(out, "class gate_guard_p0_ask current;\n"))

	out = graph.GenerateMermaid(specs(), &graph.Overlay{Entity: "nobody", Step: "ask"})
	assert.NotContains(t, out, "classDef current")
}
