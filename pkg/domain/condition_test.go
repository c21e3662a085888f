package domain_test

import (
	"testing"

	"github.com/aretw0/vignette/pkg/domain"
	"github.com/stretchr/testify/assert"
)

type mapFlags map[string]bool

func (m mapFlags) GetFlagState(name string) bool     { return m[name] }
func (m mapFlags) SetFlagState(name string, v bool) { m[name] = v }

func TestConditions(t *testing.T) {
	flags := mapFlags{"door_open": true}
	yes := domain.Always{}
	no := domain.ConditionFunc(func() bool { return false })

	tests := []struct {
		name string
		cond domain.Condition
		want bool
	}{
		{"always", yes, true},
		{"flag matches", domain.FlagEquals{Store: flags, Name: "door_open", Expected: true}, true},
		{"flag differs", domain.FlagEquals{Store: flags, Name: "door_open", Expected: false}, false},
		{"unknown flag compares against false", domain.FlagEquals{Store: flags, Name: "x", Expected: false}, true},
		{"nil store never matches", domain.FlagEquals{Name: "door_open", Expected: true}, false},
		{"not of true", domain.Not{Inner: []domain.Condition{yes}}, false},
		{"not of false", domain.Not{Inner: []domain.Condition{no}}, true},
		{"any with one true", domain.AnyOf{Inner: []domain.Condition{no, yes}}, true},
		{"empty any", domain.AnyOf{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Evaluate())
		})
	}
}

func TestAllHold(t *testing.T) {
	assert.True(t, domain.AllHold(nil), "empty conjunction is vacuously true")
	assert.False(t, domain.AllHold([]domain.Condition{domain.Always{}, nil}))
	assert.False(t, domain.AllHold([]domain.Condition{domain.Always{}, domain.ConditionFunc(func() bool { return false })}))
}

func TestFlagEquals_EvaluatedFresh(t *testing.T) {
	flags := mapFlags{}
	cond := domain.FlagEquals{Store: flags, Name: "x", Expected: true}

	assert.False(t, cond.Evaluate())
	flags.SetFlagState("x", true)
	assert.True(t, cond.Evaluate())
}
