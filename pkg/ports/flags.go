package ports

import "github.com/aretw0/vignette/pkg/domain"

// FlagStore is the flag collaborator. Unknown names default to false and are logged
// by the implementation.
type FlagStore = domain.FlagStore

// FlagLister is implemented by stores that can enumerate their flags (introspection).
type FlagLister interface {
	ListFlags() (map[string]bool, error)
}
