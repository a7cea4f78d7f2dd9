package lang

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/dshills/textcore/internal/engine/syntax"
)

// Registry holds language configurations and the grammars built from them.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]*Config
	// none records languages known to have no grammar.
	none     map[string]bool
	grammars *syntax.Registry

	logger   *slog.Logger
	onReload func(names []string)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithReloadHook registers fn to be called with the names of languages
// whose configuration changed after a load.
func WithReloadHook(fn func(names []string)) Option {
	return func(r *Registry) {
		r.onReload = fn
	}
}

// NewRegistry creates a registry holding the built-in languages.
func NewRegistry(opts ...Option) (*Registry, error) {
	r := &Registry{
		configs:  make(map[string]*Config),
		none:     make(map[string]bool),
		grammars: syntax.NewRegistry(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	defs, err := decode(bytes.NewReader(builtin), FormatTOML)
	if err != nil {
		return nil, fmt.Errorf("built-in languages: %w", err)
	}
	r.merge(defs)
	return r, nil
}

// Config returns a copy of the configuration of name.
func (r *Registry) Config(name string) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.configs[name]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Detect returns the configuration of the language whose extensions match
// filename. Ties resolve to the alphabetically first language.
func (r *Registry) Detect(filename string) (*Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.sortedNames() {
		if c := r.configs[name]; c.Matches(filename) {
			return c.Clone(), true
		}
	}
	return nil, false
}

// Names returns the configured language names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNames()
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.configs))
	for n := range r.configs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Grammar returns the grammar for name, building it on first use. It
// returns nil when the language is unknown or nothing can parse it.
func (r *Registry) Grammar(name string) syntax.Grammar {
	if g, ok := r.grammars.Lookup(name); ok {
		return g
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if g, ok := r.grammars.Lookup(name); ok {
		return g
	}
	if r.none[name] {
		return nil
	}
	c, ok := r.configs[name]
	if !ok {
		return nil
	}
	g := r.build(c)
	if g == nil {
		r.none[name] = true
		return nil
	}
	r.grammars.Register(g)
	return g
}

func (r *Registry) build(c *Config) syntax.Grammar {
	bind, hasBinding := bindings[c.Name]
	switch {
	case c.Backend == BackendTreeSitter && !hasBinding:
		r.logger.Warn("no tree-sitter binding", "language", c.Name)
		return nil
	case c.Backend != BackendLexer && hasBinding && c.Query != "":
		return syntax.NewTreeSitterGrammar(c.Name, bind(), c.Query, c.RunnablesQuery)
	}

	lexerName := c.Lexer
	if lexerName == "" {
		lexerName = c.Name
	}
	lexer := lexers.Get(lexerName)
	if lexer == nil {
		r.logger.Debug("no lexer", "language", c.Name, "lexer", lexerName)
		return nil
	}
	return syntax.NewLexerGrammar(c.Name, lexer)
}

// Load merges the definitions read from rd into the registry.
func (r *Registry) Load(rd io.Reader, format Format) error {
	defs, err := decode(rd, format)
	if err != nil {
		return err
	}
	r.apply(defs)
	return nil
}

// LoadFile merges the definitions of a TOML or YAML file.
func (r *Registry) LoadFile(path string) error {
	defs, err := decodeFile(path)
	if err != nil {
		return err
	}
	r.apply(defs)
	return nil
}

// LoadDir merges every definition file directly under dir, in name order.
// All files are decoded before any is applied, so a bad file leaves the
// registry unchanged.
func (r *Registry) LoadDir(dir string) error {
	paths, err := definitionFiles(dir)
	if err != nil {
		return err
	}
	var all []definition
	for _, p := range paths {
		defs, err := decodeFile(p)
		if err != nil {
			return err
		}
		all = append(all, defs...)
	}
	r.apply(all)
	return nil
}

func (r *Registry) apply(defs []definition) {
	changed := r.merge(defs)
	if len(changed) == 0 {
		return
	}
	r.logger.Info("languages reloaded", "languages", changed)
	if r.onReload != nil {
		r.onReload(changed)
	}
}

// merge applies defs and drops the cached grammars of changed languages.
func (r *Registry) merge(defs []definition) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var changed []string
	for _, d := range defs {
		r.configs[d.Name] = d.apply(r.configs[d.Name])
		r.grammars.Unregister(d.Name)
		delete(r.none, d.Name)
		if !slices.Contains(changed, d.Name) {
			changed = append(changed, d.Name)
		}
	}
	slices.Sort(changed)
	return changed
}
