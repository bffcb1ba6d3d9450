// Package syntax colors document content for terminal display.
package syntax

import (
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Token is a colored chunk of one line.
type Token struct {
	Text  string
	Color string // terminal color, empty for default
}

// Line is one display line of tokens.
type Line []Token

// Plain returns the line's text without color information.
func (l Line) Plain() string {
	var b strings.Builder
	for _, t := range l.Tokens() {
		b.WriteString(t.Text)
	}
	return b.String()
}

func (l Line) Tokens() []Token { return l }

// Colorize tokenizes content as the language implied by filename and
// returns one Line per input line. Content with no matching lexer, or
// content the lexer rejects, comes back as plain uncolored lines.
func Colorize(filename, content string) []Line {
	raw := strings.Split(content, "\n")

	lexer := lexerFor(filename)
	if lexer == nil {
		return plain(raw)
	}

	it, err := lexer.Tokenise(nil, content)
	if err != nil {
		return plain(raw)
	}

	style := styles.Get("dracula")
	if style == nil {
		style = styles.Fallback
	}

	out := make([]Line, 0, len(raw))
	var current Line
	for _, tok := range it.Tokens() {
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				out = append(out, current)
				current = nil
			}
			if part != "" {
				current = append(current, Token{Text: part, Color: colorFor(style, tok.Type)})
			}
		}
	}
	out = append(out, current)

	for len(out) < len(raw) {
		out = append(out, Line{})
	}
	return out
}

func plain(lines []string) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{{Text: l}}
	}
	return out
}

func lexerFor(filename string) chroma.Lexer {
	lexer := lexers.Match(filename)
	if lexer == nil {
		if ext := filepath.Ext(filename); ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer != nil {
		lexer = chroma.Coalesce(lexer)
	}
	return lexer
}

func colorFor(style *chroma.Style, tt chroma.TokenType) string {
	entry := style.Get(tt)
	if entry.Colour.IsSet() {
		return entry.Colour.String()
	}
	return ""
}
