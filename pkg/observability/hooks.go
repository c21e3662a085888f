package observability

import (
	"context"

	"github.com/aretw0/vignette/pkg/domain"
)

// Combine returns hooks that call every non-nil callback of each input in order.
func Combine(all ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range all {
		out.OnEnqueue = chainActivation(out.OnEnqueue, h.OnEnqueue)
		out.OnActivationStart = chainActivation(out.OnActivationStart, h.OnActivationStart)
		out.OnActivationFinish = chainActivation(out.OnActivationFinish, h.OnActivationFinish)
		out.OnStepEnter = chainStep(out.OnStepEnter, h.OnStepEnter)
		out.OnStepLeave = chainStep(out.OnStepLeave, h.OnStepLeave)
	}
	return out
}

type activationHook = func(context.Context, *domain.ActivationEvent)
type stepHook = func(context.Context, *domain.StepEvent)

func chainActivation(a, b activationHook) activationHook {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.ActivationEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainStep(a, b stepHook) stepHook {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.StepEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
