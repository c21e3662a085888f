package runtime_test

import (
	"fmt"

	"github.com/aretw0/vignette/pkg/domain"
)

// fnStep is a step whose behavior is supplied by the test.
type fnStep struct {
	id     string
	succ   []string
	run    func(sc *domain.StepContext) domain.Outcome
	resume func(sc *domain.StepContext, tok domain.ResumeToken) domain.Outcome
}

func (s *fnStep) ID() string           { return s.id }
func (s *fnStep) Kind() string         { return "test" }
func (s *fnStep) Successors() []string { return s.succ }
func (s *fnStep) Run(sc *domain.StepContext) domain.Outcome {
	if s.run == nil {
		return domain.Done()
	}
	return s.run(sc)
}

// resumableStep adds Resume to fnStep.
type resumableStep struct{ *fnStep }

func (s resumableStep) Resume(sc *domain.StepContext, tok domain.ResumeToken) domain.Outcome {
	return s.resume(sc, tok)
}

// recordStep appends its id to log and continues to next.
func recordStep(log *[]string, id, next string) domain.Step {
	var succ []string
	if next != "" {
		succ = []string{next}
	}
	return &fnStep{id: id, succ: succ, run: func(*domain.StepContext) domain.Outcome {
		*log = append(*log, id)
		return domain.Continue(next)
	}}
}

// staticSource serves prebuilt definitions.
type staticSource map[string]*domain.Definition

func (s staticSource) Definition(entityID string) (*domain.Definition, error) {
	def, ok := s[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, entityID)
	}
	return def, nil
}

type mapFlags map[string]bool

func (m mapFlags) GetFlagState(name string) bool     { return m[name] }
func (m mapFlags) SetFlagState(name string, v bool) { m[name] = v }

func always() []domain.Condition { return []domain.Condition{domain.Always{}} }
