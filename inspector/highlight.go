// Package inspector implements a read-only terminal viewer attached to one
// already-Ready *boltconn.Connection: it runs a single statement, streams
// the resulting records as they arrive over Fetch, and renders them with a
// Bubble Tea program. It adds no session management of its own — it
// observes exactly the one connection handed to it.
package inspector

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/x/ansi"
)

var (
	statementLexer chroma.Lexer
	formatter      chroma.Formatter
	style          *chroma.Style
)

func init() {
	statementLexer = lexers.Get("cypher")
	if statementLexer == nil {
		statementLexer = lexers.Fallback
	}
	formatter = formatters.Get("terminal256")
	style = styles.Get("monokai")
}

// highlightStatement returns s with ANSI terminal syntax highlighting
// applied. On error or empty input, the original string is returned
// unchanged.
func highlightStatement(s string) string {
	if s == "" {
		return s
	}

	iterator, err := statementLexer.Tokenise(nil, s)
	if err != nil {
		return s
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return s
	}

	return strings.TrimRight(buf.String(), "\n")
}

// scrollStatement highlights s and then ANSI-aware slices the result to
// [hOffset, hOffset+width), so a statement wider than the header can be
// scrolled left/right without breaking the colored escape sequences.
func scrollStatement(s string, hOffset, width int) string {
	return ansi.Cut(highlightStatement(s), hOffset, hOffset+width)
}
