package tui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_RendersMarkdown(t *testing.T) {
	render := NewRenderer()
	out, err := render("**Halt!** Who goes there?")
	require.NoError(t, err)
	assert.Contains(t, out, "Halt!")
}

func TestPrintBanner_IncludesVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}

func TestIsTerminal_PipeIsNotTTY(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()
	assert.False(t, IsTerminal(w))
}
