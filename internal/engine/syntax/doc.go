// Package syntax keeps a parse tree in step with a document and turns it into
// per-line highlight tokens.
//
// A Grammar produces Parsers. A Parser builds a Tree for the source text,
// reusing the previous Tree when its backend can parse incrementally, and
// answers highlight and runnable queries against it. Two backends exist:
// tree-sitter grammars (incremental, query driven) and chroma lexers (a full
// re-lex per version, for languages with no tree-sitter binding).
//
// An Index owns exactly one Tree per document version. Every edit is fed to
// Index.Edit as a StructuralEdit; the old Tree is edited, a new Tree is
// parsed with it as reference, and the old Tree is closed. Line tokens are
// cached until the next edit.
//
// Missing grammars and parse failures are never errors for callers: the
// Index falls back to one unnamed token per line.
package syntax
