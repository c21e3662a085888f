/*
Package vignette is a scripted-event engine for scenes: entities carry authored scripts, hosts submit activation requests, and the engine runs them one at a time.

Each entity owns an ordered list of pages. A page pairs a trigger and a set of conditions with a chain of steps. When an activation starts, the engine scans the entity's pages from last to first and runs the first page whose trigger matches and whose conditions hold, so later pages override earlier ones as flags change.

# Concept

Vignette separates authored content (Loader), persistent switches (FlagStore) and the host surface (Presenter). Steps are cooperative: a step either finishes, continues, or suspends until the host acknowledges a presentation, a number of ticks pass, or the host completes the step itself. The host drives time by calling Tick once per frame.

# Key Features

  - Strict FIFO: activations run in submission order and never overlap.
  - Reverse-scan resolution: the highest-numbered satisfied page wins.
  - Completion callbacks: every request's callback runs exactly once, whatever the result.
  - Pluggable content: Markdown/YAML directories via Loam, single scene files, or the Go DSL.

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/vignette"
		"github.com/aretw0/vignette/pkg/domain"
	)

	func main() {
		// The runner presents messages on stdout and reads answers from stdin.
		r := vignette.NewRunner(os.Stdin, os.Stdout)

		// Entities are read from ./town
		eng, err := vignette.New("./town", vignette.WithPresenter(r))
		if err != nil {
			log.Fatal(err)
		}

		// The player talks to the guard
		eng.Submit("guard", domain.TriggerConfirm, func() {
			log.Println("conversation over")
		})

		// Drain, present, acknowledge and tick until idle
		if err := r.Run(context.Background(), eng); err != nil {
			log.Fatal(err)
		}
	}
*/
package vignette
