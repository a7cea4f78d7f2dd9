// Package lang holds per-language editing configuration and builds the
// grammars the syntax index parses with.
//
// Built-in definitions are embedded as TOML. Users override or add languages
// with TOML or YAML files; fields present in an override replace the
// built-in value, absent fields keep it.
package lang

import (
	"path/filepath"
	"slices"
	"strings"
)

// Backend selects how a language is parsed.
type Backend string

const (
	// BackendAuto uses tree-sitter when a binding exists, else a chroma lexer.
	BackendAuto Backend = ""
	// BackendTreeSitter forces tree-sitter.
	BackendTreeSitter Backend = "tree-sitter"
	// BackendLexer forces a chroma lexer.
	BackendLexer Backend = "lexer"
)

// Indent describes one indentation step.
type Indent struct {
	Width int    `toml:"width" yaml:"width" json:"width"`
	Unit  string `toml:"unit" yaml:"unit" json:"unit"`
}

// String returns the text of one indent step: Width spaces when Unit is a
// space, otherwise a tab.
func (i Indent) String() string {
	if i.Unit == " " {
		return strings.Repeat(" ", max(i.Width, 1))
	}
	return "\t"
}

// Config is the editing configuration of one language.
type Config struct {
	Name           string   `json:"name"`
	Extensions     []string `json:"extensions,omitempty"`
	Backend        Backend  `json:"backend,omitempty"`
	Lexer          string   `json:"lexer,omitempty"`
	Query          string   `json:"-"`
	RunnablesQuery string   `json:"-"`
	Indent         Indent   `json:"indent"`
	Comment        string   `json:"comment"`
	Executable     bool     `json:"executable,omitempty"`
	Cmd            string   `json:"cmd,omitempty"`
	CmdTest        string   `json:"cmd_test,omitempty"`
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Extensions = slices.Clone(c.Extensions)
	return &cp
}

// Matches reports whether filename carries one of the language's extensions.
func (c *Config) Matches(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	base := filepath.Base(filename)
	for _, e := range c.Extensions {
		if strings.EqualFold(e, ext) || e == base {
			return true
		}
	}
	return false
}

// definition is the on-disk form of a Config. Pointer fields distinguish
// "absent" from "set to the zero value" so overrides merge field by field.
type definition struct {
	Name           string   `toml:"name" yaml:"name"`
	Extensions     []string `toml:"extensions" yaml:"extensions"`
	Backend        *string  `toml:"backend" yaml:"backend"`
	Lexer          *string  `toml:"lexer" yaml:"lexer"`
	Query          *string  `toml:"query" yaml:"query"`
	RunnablesQuery *string  `toml:"runnables_query" yaml:"runnables_query"`
	Indent         *struct {
		Width *int    `toml:"width" yaml:"width"`
		Unit  *string `toml:"unit" yaml:"unit"`
	} `toml:"indent" yaml:"indent"`
	Comment    *string `toml:"comment" yaml:"comment"`
	Executable *bool   `toml:"executable" yaml:"executable"`
	Cmd        *string `toml:"cmd" yaml:"cmd"`
	CmdTest    *string `toml:"cmd_test" yaml:"cmd_test"`
}

// file is the top level of a language definition file.
type file struct {
	Languages []definition `toml:"language" yaml:"language"`
}

// apply merges d onto base, which may be nil.
func (d definition) apply(base *Config) *Config {
	c := &Config{Name: d.Name, Indent: Indent{Width: 4, Unit: " "}}
	if base != nil {
		c = base.Clone()
	}
	if d.Extensions != nil {
		c.Extensions = slices.Clone(d.Extensions)
	}
	set(&c.Lexer, d.Lexer)
	set(&c.Query, d.Query)
	set(&c.RunnablesQuery, d.RunnablesQuery)
	set(&c.Comment, d.Comment)
	set(&c.Executable, d.Executable)
	set(&c.Cmd, d.Cmd)
	set(&c.CmdTest, d.CmdTest)
	if d.Backend != nil {
		c.Backend = Backend(*d.Backend)
	}
	if d.Indent != nil {
		set(&c.Indent.Width, d.Indent.Width)
		set(&c.Indent.Unit, d.Indent.Unit)
	}
	return c
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
