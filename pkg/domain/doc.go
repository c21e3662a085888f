/*
Package domain contains the core model of the Vignette event engine.

It defines what authored content looks like once loaded (Definitions, Pages, Steps
and Conditions) and what callers hand to the engine (ActivationRequests). The package
is kept free of I/O and persistence so that every adapter and the runtime can share it.

# Key Entities

  - Definition: all pages authored for one entity, materialized lazily and cached.
  - Page: a trigger tag, a conjunction of Conditions and a start Step.
  - Step: one unit of behavior that decides its own successor at runtime.
  - Condition: a side-effect-free predicate evaluated on every resolution.
  - ActivationRequest: one request to resolve and run a page for an entity.
*/
package domain
