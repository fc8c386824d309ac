package renders

import (
	"fmt"
	"io"
	"os"

	markdown "github.com/MichaelMure/go-term-markdown"
	"golang.org/x/term"
)

const (
	defaultWidth = 100
	leftPad      = 2
)

// RenderMarkdown renders markdown for the terminal, wrapped to the width of
// stdout when it is a terminal.
func RenderMarkdown(content string) string {
	width := defaultWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w
	}
	return string(markdown.Render(content, width-leftPad*2, leftPad))
}

// IsTerminal reports whether v, a reader or writer, is a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WriteMarkdown prints content rendered for terminals and untouched for
// pipes and files, so redirected output stays plain markdown.
func WriteMarkdown(out io.Writer, content string) error {
	if IsTerminal(out) {
		content = RenderMarkdown(content)
	}
	_, err := fmt.Fprint(out, content)
	return err
}
