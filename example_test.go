package vignette_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/vignette"
	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/dsl"
)

// ExampleNew_memory demonstrates the engine with entities built in Go instead of files.
// Two entities are scheduled on scene entry; they run one after the other.
func ExampleNew_memory() {
	b := dsl.New()
	b.Entity("torch").
		Page(domain.TriggerAutomatic).
		SetFlag("light", "torch_lit", true)
	b.Entity("guard").
		Page(domain.TriggerAutomatic).
		SetFlag("greet", "guard_greeted", true).
		Page(domain.TriggerAutomatic).WhenFlag("guard_greeted", true).
		SetFlag("again", "guard_bored", true)

	loader, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	// No content path is needed because a loader is provided.
	eng, err := vignette.New("", vignette.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	eng.Submit("guard", domain.TriggerAutomatic, func() { fmt.Println("guard finished") })
	eng.Submit("torch", domain.TriggerAutomatic, func() { fmt.Println("torch finished") })
	eng.Submit("guard", domain.TriggerAutomatic, func() { fmt.Println("guard finished again") })

	if err := eng.RunUntilIdle(context.Background(), 10); err != nil {
		log.Fatal(err)
	}
	fmt.Println("bored:", eng.Flags().GetFlagState("guard_bored"))

	// Output:
	// guard finished
	// torch finished
	// guard finished again
	// bored: true
}
