package tui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// PrintBanner writes the vignette banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{`       _                  _   _       `, "#818cf8"},
		{` __ __(_) __ _ _ __   ___| |_| |_ ___ `, "#a78bfa"},
		{` \ V /| |/ _' | '_ \ / _ \  _|  _/ -_)`, "#c084fc"},
		{`  \_/ |_|\__, |_| |_|\___/\__|\__\___|`, "#e879f9"},
		{`         |___/                        `, "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
