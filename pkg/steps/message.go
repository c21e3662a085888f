package steps

import "github.com/aretw0/vignette/pkg/domain"

// Message shows a line of text and waits for the player to acknowledge it.
type Message struct {
	base
	Speaker string
	Text    string
}

type messageArgs struct {
	Speaker string `mapstructure:"speaker"`
	Text    string `mapstructure:"text"`
}

// NewMessage builds a message step.
func NewMessage(spec domain.StepSpec, _ domain.ConditionBuilder) (domain.Step, error) {
	var args messageArgs
	if err := decodeArgs(spec, &args); err != nil {
		return nil, err
	}
	return &Message{base: newBase(spec), Speaker: args.Speaker, Text: args.Text}, nil
}

// Run presents the text. Headless hosts continue immediately.
func (m *Message) Run(sc *domain.StepContext) domain.Outcome {
	shown := sc.Present(domain.Presentation{
		StepID:  m.id,
		Kind:    KindMessage,
		Speaker: m.Speaker,
		Text:    m.Text,
		Await:   domain.SignalAck,
	})
	if !shown {
		return domain.Continue(m.next)
	}
	return domain.Suspend(domain.AwaitSignal(domain.SignalAck))
}

// Resume continues once the message box is dismissed.
func (m *Message) Resume(_ *domain.StepContext, _ domain.ResumeToken) domain.Outcome {
	return domain.Continue(m.next)
}
