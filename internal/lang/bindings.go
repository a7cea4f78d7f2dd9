package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// bindings maps language names to the tree-sitter grammars compiled into
// the binary.
var bindings = map[string]func() *sitter.Language{
	"c":          c.GetLanguage,
	"go":         golang.GetLanguage,
	"html":       html.GetLanguage,
	"javascript": javascript.GetLanguage,
	"python":     python.GetLanguage,
	"rust":       rust.GetLanguage,
	"typescript": typescript.GetLanguage,
}

// HasBinding reports whether a tree-sitter grammar is compiled in for name.
func HasBinding(name string) bool {
	_, ok := bindings[name]
	return ok
}
