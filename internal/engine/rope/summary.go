package rope

import "strings"

// Summary holds aggregated metrics for a span of text.
type Summary struct {
	// Bytes is the UTF-8 byte count.
	Bytes int

	// Newlines is the number of '\n' bytes.
	Newlines int
}

func summarize(s string) Summary {
	return Summary{Bytes: len(s), Newlines: strings.Count(s, "\n")}
}

// Add combines two summaries.
func (s Summary) Add(other Summary) Summary {
	return Summary{
		Bytes:    s.Bytes + other.Bytes,
		Newlines: s.Newlines + other.Newlines,
	}
}

// Point is a line/column position. Both fields are 0-based and Column is
// measured in bytes from the start of the line.
type Point struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Compare returns -1, 0 or 1 depending on whether p sorts before, equal to or
// after other.
func (p Point) Compare(other Point) int {
	switch {
	case p.Line < other.Line:
		return -1
	case p.Line > other.Line:
		return 1
	case p.Column < other.Column:
		return -1
	case p.Column > other.Column:
		return 1
	}
	return 0
}
