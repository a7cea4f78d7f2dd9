package engine

import (
	"log/slog"
	"time"

	"github.com/dshills/textcore/internal/engine/history"
	"github.com/dshills/textcore/internal/engine/syntax"
	"github.com/dshills/textcore/internal/lang"
)

// DefaultParseTimeout bounds a single parse of the document.
const DefaultParseTimeout = 2 * time.Second

// Languages resolves language configuration and grammars for a document.
// *lang.Registry implements it.
type Languages interface {
	Config(name string) (*lang.Config, bool)
	Detect(filename string) (*lang.Config, bool)
	Grammar(name string) syntax.Grammar
}

// Option configures a Document during creation.
type Option func(*Document)

// WithContent sets the initial content.
func WithContent(content string) Option {
	return func(d *Document) {
		d.initContent = content
	}
}

// WithFilename sets the file name, used to detect the language when
// WithLanguage is absent and as the {file} variable of run commands.
func WithFilename(name string) Option {
	return func(d *Document) {
		d.filename = name
	}
}

// WithLanguage selects the language by name.
func WithLanguage(name string) Option {
	return func(d *Document) {
		d.languageName = name
	}
}

// WithLanguages sets the registry languages and grammars come from. Without
// it the document has no language and is highlighted as plain text.
func WithLanguages(l Languages) Option {
	return func(d *Document) {
		d.languages = l
	}
}

// WithLogger sets the document logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMaxUndoEntries sets the maximum number of undo steps kept.
func WithMaxUndoEntries(n int) Option {
	return func(d *Document) {
		if n > 0 {
			d.maxUndoEntries = n
		}
	}
}

// WithMetrics records document activity on m.
func WithMetrics(m *Metrics) Option {
	return func(d *Document) {
		d.metrics = m
	}
}

// WithParseTimeout bounds every parse. Zero disables the limit.
func WithParseTimeout(t time.Duration) Option {
	return func(d *Document) {
		if t >= 0 {
			d.parseTimeout = t
		}
	}
}

func defaults() *Document {
	return &Document{
		logger:         slog.New(slog.DiscardHandler),
		maxUndoEntries: history.DefaultMaxEntries,
		parseTimeout:   DefaultParseTimeout,
	}
}
