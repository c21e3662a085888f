// Package tests holds reusable contract suites for port implementations.
package tests

import (
	"testing"

	"github.com/aretw0/vignette/pkg/domain"
	"github.com/aretw0/vignette/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunFlagStoreContract verifies that a FlagStore implementation follows the port contract.
// The store must start without a flag named "contract.unknown".
func RunFlagStoreContract(t *testing.T, store ports.FlagStore) {
	t.Helper()

	t.Run("Unknown defaults to false", func(t *testing.T) {
		assert.False(t, store.GetFlagState("contract.unknown"))
	})

	t.Run("Set and Get", func(t *testing.T) {
		store.SetFlagState("contract.door_open", true)
		assert.True(t, store.GetFlagState("contract.door_open"))

		store.SetFlagState("contract.door_open", false)
		assert.False(t, store.GetFlagState("contract.door_open"))
	})

	t.Run("Flags are independent", func(t *testing.T) {
		store.SetFlagState("contract.a", true)
		store.SetFlagState("contract.b", false)
		assert.True(t, store.GetFlagState("contract.a"))
		assert.False(t, store.GetFlagState("contract.b"))
	})

	if lister, ok := store.(ports.FlagLister); ok {
		t.Run("List", func(t *testing.T) {
			store.SetFlagState("contract.listed", true)
			flags, err := lister.ListFlags()
			require.NoError(t, err)
			assert.True(t, flags["contract.listed"])
			_, present := flags["contract.unknown"]
			assert.False(t, present)
		})
	}
}

// RunDefinitionLoaderContract verifies a loader against the entities it was seeded with.
// expected maps entity IDs to their number of authored pages.
func RunDefinitionLoaderContract(t *testing.T, loader ports.DefinitionLoader, expected map[string]int) {
	t.Helper()

	t.Run("ListEntities", func(t *testing.T) {
		ids, err := loader.ListEntities()
		require.NoError(t, err)
		for id := range expected {
			assert.Contains(t, ids, id)
		}
	})

	t.Run("LoadDefinition", func(t *testing.T) {
		for id, pages := range expected {
			spec, err := loader.LoadDefinition(id)
			require.NoError(t, err, "entity %s", id)
			assert.Equal(t, id, spec.ID)
			assert.Len(t, spec.Pages, pages, "entity %s", id)
		}
	})

	t.Run("Missing entity", func(t *testing.T) {
		_, err := loader.LoadDefinition("contract-missing-entity")
		assert.ErrorIs(t, err, domain.ErrDefinitionNotFound)
	})
}
