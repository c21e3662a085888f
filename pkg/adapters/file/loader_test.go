package file_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/vignette/pkg/adapters/file"
	"github.com/aretw0/vignette/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const village = `
scene: village
flags:
  intro_seen: false
entities:
  - id: elder
    pages:
      - trigger: auto
        conditions: [{kind: flag, params: {name: intro_seen, value: false}}]
        steps:
          - {id: greet, kind: message, args: {text: "Welcome, traveler."}, next: mark}
          - {id: mark, kind: set_flag, args: {name: intro_seen, value: true}}
      - trigger: confirm
        steps: [{id: chat, kind: message, args: {text: "Rest well."}}]
  - id: well
    pages: []
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "village.yaml")
	require.NoError(t, os.WriteFile(path, []byte(village), 0o644))

	loader, err := file.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "village", loader.Scene.Name)
	assert.Equal(t, map[string]bool{"intro_seen": false}, loader.Scene.Flags)

	tests.RunDefinitionLoaderContract(t, loader, map[string]int{"elder": 2, "well": 0})
}

func TestParse_Errors(t *testing.T) {
	_, err := file.Parse([]byte("entities: [{pages: []}]"))
	assert.ErrorContains(t, err, "no id")

	_, err = file.Parse([]byte("entities: [{id: a}, {id: a}]"))
	assert.ErrorContains(t, err, "twice")

	_, err = file.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
