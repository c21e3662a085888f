/*
Package ports defines the driven ports (interfaces) for the Vignette engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various flag backends and content sources.

# Key Interfaces

  - FlagStore: boolean game flags consulted by conditions and written by steps.
  - DefinitionLoader: retrieves authored entity content (e.g., from Loam, YAML or memory).
  - FlagLister: stores that can enumerate every flag they hold.
  - Watchable: loaders that can signal content changes for hot reload.
*/
package ports
