package runtime_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/vignette/internal/runtime"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestRunner_NilAndEmptyPagesCompleteOnce(t *testing.T) {
	r := runtime.NewRunner(nil, domain.LifecycleHooks{})

	var calls int
	r.Run(nil, nil, func() { calls++ })
	assert.Equal(t, 1, calls)

	r.Run(&domain.StepContext{}, domain.NewStaticPage(0, domain.TriggerConfirm, nil, "gone"), func() { calls++ })
	assert.Equal(t, 2, calls)
	assert.False(t, r.Busy())
}

func TestRunner_LongChainIsIterative(t *testing.T) {
	const n = 10000
	var log []string
	steps := make([]domain.Step, n)
	for i := range n {
		next := ""
		if i < n-1 {
			next = fmt.Sprintf("s%d", i+1)
		}
		steps[i] = recordStep(&log, fmt.Sprintf("s%d", i), next)
	}
	page := domain.NewStaticPage(0, domain.TriggerSystem, nil, "s0", steps...)

	var done bool
	runtime.NewRunner(nil, domain.LifecycleHooks{}).Run(&domain.StepContext{}, page, func() { done = true })

	assert.True(t, done)
	assert.Len(t, log, n)
}

func TestRunner_UnknownSuccessorEndsPage(t *testing.T) {
	var log []string
	page := domain.NewStaticPage(0, domain.TriggerSystem, nil, "a",
		&fnStep{id: "a", run: func(*domain.StepContext) domain.Outcome {
			log = append(log, "a")
			return domain.Continue("ghost")
		}})

	var done bool
	runtime.NewRunner(nil, domain.LifecycleHooks{}).Run(&domain.StepContext{}, page, func() { done = true })
	assert.True(t, done)
	assert.Equal(t, []string{"a"}, log)
}

func TestRunner_WaitTicksCountsDown(t *testing.T) {
	wait := &fnStep{id: "w", run: func(*domain.StepContext) domain.Outcome {
		return domain.Suspend(domain.WaitTicks(3))
	}}
	wait.resume = func(*domain.StepContext, domain.ResumeToken) domain.Outcome { return domain.Done() }
	page := domain.NewStaticPage(0, domain.TriggerSystem, nil, "w", resumableStep{wait})

	r := runtime.NewRunner(nil, domain.LifecycleHooks{})
	var done bool
	r.Run(&domain.StepContext{}, page, func() { done = true })

	for i := 0; i < 2; i++ {
		r.Poll(nil)
		assert.False(t, done, "tick %d", i+1)
	}
	tok, ok := r.Token()
	assert.True(t, ok)
	assert.Equal(t, 1, tok.Ticks)

	r.Poll(nil)
	assert.True(t, done)
	assert.False(t, r.Acknowledge("late", nil), "signals are refused once the page completed")
}
