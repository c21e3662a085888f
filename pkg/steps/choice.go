package steps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/vignette/pkg/domain"
)

// ChoiceOption is one entry of a choice menu. An empty Next falls back to the step's next.
type ChoiceOption struct {
	Label string `mapstructure:"label"`
	Next  string `mapstructure:"next"`
}

// Choice presents a menu and branches on the selected option.
//
// The acknowledged value is either a 1-based position (int or numeric string) or an
// option label. An empty value selects Cancel when one is authored.
type Choice struct {
	base
	Text    string
	Options []ChoiceOption
	Cancel  string
}

type choiceArgs struct {
	Text    string         `mapstructure:"text"`
	Options []ChoiceOption `mapstructure:"options"`
	Cancel  string         `mapstructure:"cancel"`
}

// NewChoice builds a choice step.
func NewChoice(spec domain.StepSpec, _ domain.ConditionBuilder) (domain.Step, error) {
	var args choiceArgs
	if err := decodeArgs(spec, &args); err != nil {
		return nil, err
	}
	for i, opt := range args.Options {
		if strings.TrimSpace(opt.Label) == "" {
			return nil, fmt.Errorf("%w: step %q: option %d has no label", domain.ErrInvalidArgs, spec.ID, i+1)
		}
	}
	return &Choice{base: newBase(spec), Text: args.Text, Options: args.Options, Cancel: args.Cancel}, nil
}

// Successors lists every option target, the cancel target and the default next.
func (c *Choice) Successors() []string {
	var out []string
	for _, opt := range c.Options {
		out = appendTarget(out, opt.Next)
	}
	out = appendTarget(out, c.Cancel)
	out = appendTarget(out, c.next)
	return out
}

// Run presents the menu. Headless hosts take the cancel branch, or the first option.
func (c *Choice) Run(sc *domain.StepContext) domain.Outcome {
	if len(c.Options) == 0 {
		return domain.Continue(c.next)
	}
	if !c.present(sc) {
		if c.Cancel != "" {
			return domain.Continue(c.Cancel)
		}
		return domain.Continue(c.target(c.Options[0]))
	}
	return domain.Suspend(domain.AwaitSignal(domain.SignalChoice))
}

// Resume follows the selected option. Unrecognized answers re-present the menu.
func (c *Choice) Resume(sc *domain.StepContext, token domain.ResumeToken) domain.Outcome {
	if isEmptyAnswer(token.Value) && c.Cancel != "" {
		return domain.Continue(c.Cancel)
	}
	if opt, ok := c.Select(token.Value); ok {
		return domain.Continue(c.target(opt))
	}
	sc.Log().Warn("choice answer not recognized", "step", c.id, "value", token.Value)
	c.present(sc)
	return domain.Suspend(domain.AwaitSignal(domain.SignalChoice))
}

// Select resolves an answer into one of the options.
func (c *Choice) Select(answer any) (ChoiceOption, bool) {
	pos := -1
	switch v := answer.(type) {
	case int:
		pos = v
	case int64:
		pos = int(v)
	case float64:
		pos = int(v)
	case string:
		clean := strings.TrimSpace(v)
		if n, err := strconv.Atoi(clean); err == nil {
			pos = n
			break
		}
		for _, opt := range c.Options {
			if strings.EqualFold(opt.Label, clean) {
				return opt, true
			}
		}
	}
	if pos >= 1 && pos <= len(c.Options) {
		return c.Options[pos-1], true
	}
	return ChoiceOption{}, false
}

func (c *Choice) target(opt ChoiceOption) string {
	if opt.Next != "" {
		return opt.Next
	}
	return c.next
}

func (c *Choice) present(sc *domain.StepContext) bool {
	labels := make([]string, len(c.Options))
	for i, opt := range c.Options {
		labels[i] = opt.Label
	}
	return sc.Present(domain.Presentation{
		StepID:  c.id,
		Kind:    KindChoice,
		Text:    c.Text,
		Options: labels,
		Await:   domain.SignalChoice,
	})
}

func isEmptyAnswer(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(s) == ""
	}
	return false
}
