package syntax

import "strings"

// Placeholder is the text of the single token returned for an empty line, so
// renderers always have something to anchor a caret to.
const Placeholder = "\u200b"

// Token is a contiguous span of a line with an optional highlight kind.
// Kind is empty for text no capture covers.
type Token struct {
	Kind string `json:"kind,omitempty"`
	Text string `json:"text"`
}

// IsPlaceholder reports whether t stands in for an empty line.
func (t Token) IsPlaceholder() bool {
	return t.Kind == "" && t.Text == Placeholder
}

// lineTokens splits text, the content of line starting at byte lineStart,
// into tokens. caps must be ordered by start offset. At each column the
// first capture containing it claims the text up to its end on this line;
// runs of unclaimed bytes become single unnamed tokens.
func lineTokens(text string, line, lineStart int, caps []Capture) []Token {
	if text == "" {
		return []Token{{Text: Placeholder}}
	}
	var onLine []Capture
	for _, c := range caps {
		if c.StartPoint.Line <= line && c.EndPoint.Line >= line && c.EndByte > c.StartByte {
			onLine = append(onLine, c)
		}
	}
	if len(onLine) == 0 {
		return []Token{{Text: text}}
	}

	var (
		tokens []Token
		plain  = -1
		col    int
	)
	flush := func() {
		if plain >= 0 {
			tokens = append(tokens, Token{Text: text[plain:col]})
			plain = -1
		}
	}
	for col < len(text) {
		if c, ok := captureAt(onLine, lineStart+col); ok {
			end := len(text)
			if c.EndPoint.Line == line {
				end = min(c.EndPoint.Column, len(text))
			}
			if end > col {
				flush()
				tokens = append(tokens, Token{Kind: c.Name, Text: text[col:end]})
				col = end
				continue
			}
		}
		if plain < 0 {
			plain = col
		}
		col++
	}
	flush()
	return tokens
}

func captureAt(caps []Capture, offset int) (Capture, bool) {
	for _, c := range caps {
		if c.StartByte > offset {
			break
		}
		if c.Contains(offset) && !strings.HasPrefix(c.Name, "_") {
			return c, true
		}
	}
	return Capture{}, false
}

// JoinTokens concatenates token texts; an empty-line placeholder joins to "".
func JoinTokens(tokens []Token) string {
	if len(tokens) == 1 && tokens[0].IsPlaceholder() {
		return ""
	}
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
	}
	return sb.String()
}
