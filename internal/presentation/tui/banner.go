// Package tui renders the terminal output of the launcher.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const rule = "******************************"

// PrintConfig writes the resolved configuration between two rules. On a
// terminal the YAML is syntax highlighted; anywhere else it is written
// verbatim so that logs stay greppable.
func PrintConfig(w io.Writer, yamlDoc []byte) error {
	width, tty := terminalWidth(w)
	if !tty {
		_, err := fmt.Fprintf(w, "%s\nConfig:\n%s%s\n", rule, ensureNewline(string(yamlDoc)), rule)
		return err
	}

	render, err := NewRenderer(width)
	if err != nil {
		return err
	}
	body, err := render("```yaml\n" + ensureNewline(string(yamlDoc)) + "```\n")
	if err != nil {
		return err
	}

	p := termenv.NewOutput(w).EnvColorProfile()
	header := termenv.String("Config:").Bold().Foreground(p.Color("#a78bfa"))
	_, err = fmt.Fprintf(w, "%s\n%s\n%s%s\n", rule, header, body, rule)
	return err
}

func terminalWidth(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, true
	}
	return width, true
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
