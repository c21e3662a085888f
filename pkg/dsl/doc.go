/*
Package dsl provides a fluent Go builder for entity definitions.

It is an alternative to authoring YAML or Markdown content, handy for tests, embedded
scenes and generated content. Steps added to a page are chained in order:

	b := dsl.New()
	b.Entity("guard").
		Page(domain.TriggerConfirm).
		Say("hello", "Guard", "Move along.").
		Page(domain.TriggerConfirm).WhenFlag("quest_done", true).
		Say("thanks", "Guard", "Thank you!").
		SetFlag("reward", "rewarded", true)

	loader, err := b.Build() // a memory.Loader, ready for vignette.WithLoader
*/
package dsl
