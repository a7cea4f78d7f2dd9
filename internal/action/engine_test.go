package action

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/cursor"
	"github.com/dshills/textcore/internal/lang"
)

func newLanguages(t *testing.T) *lang.Registry {
	t.Helper()
	r, err := lang.NewRegistry()
	require.NoError(t, err)
	require.NoError(t, r.Load(strings.NewReader(`
[[language]]
name = "slash"
extensions = [".slash"]
backend = "lexer"
comment = "// "
indent = { width = 4, unit = " " }
`), lang.FormatTOML))
	return r
}

func newDoc(t *testing.T, content string, language string) *engine.Document {
	t.Helper()
	opts := []engine.Option{engine.WithContent(content)}
	if language != "" {
		opts = append(opts, engine.WithLanguage(language), engine.WithLanguages(newLanguages(t)))
	}
	d := engine.New(opts...)
	t.Cleanup(d.Close)
	return d
}

func sel(anchor, cur int) *cursor.Selection {
	s := cursor.New(anchor, cur)
	return &s
}

func apply(t *testing.T, e *Engine, a Action, c Context) Result {
	t.Helper()
	res, err := e.Apply(context.Background(), a, c)
	require.NoError(t, err)
	return res
}

func TestTextInput(t *testing.T) {
	e := New()
	tests := []struct {
		name       string
		content    string
		offset     int
		selection  *cursor.Selection
		text       string
		want       string
		wantOffset int
		changed    bool
	}{
		{"insert", "ac", 1, nil, "b", "abc", 2, true},
		{"replace selection", "abcd", 0, sel(3, 1), "X", "aXd", 2, true},
		{"clamped selection", "abcd", 0, sel(2, 40), "!", "ab!", 3, true},
		{"multibyte", "ab", 1, nil, "é", "aéb", 3, true},
		{"empty text", "ab", 1, nil, "", "ab", 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(t, tt.content, "")
			res := apply(t, e, TextInput, Context{
				Offset: tt.offset, Doc: d, Selection: tt.selection, Input: Input{Text: tt.text},
			})
			assert.Equal(t, tt.want, d.Text())
			assert.Equal(t, tt.wantOffset, res.Offset)
			assert.Equal(t, tt.changed, res.Changed)
			if tt.changed {
				assert.Nil(t, res.Selection)
			}
		})
	}
}

func TestBackspaceAndDelete(t *testing.T) {
	e := New()
	tests := []struct {
		name       string
		action     Action
		content    string
		offset     int
		selection  *cursor.Selection
		want       string
		wantOffset int
		changed    bool
	}{
		{"backspace", Backspace, "abc", 3, nil, "ab", 2, true},
		{"backspace at start", Backspace, "abc", 0, nil, "abc", 0, false},
		{"backspace selection", Backspace, "abcd", 3, sel(1, 3), "ad", 1, true},
		{"backspace clamped selection", Backspace, "abcd", 2, sel(2, 50), "ab", 2, true},
		{"backspace grapheme", Backspace, "e\u0301x", 3, nil, "x", 0, true},
		{"backspace newline", Backspace, "a\nb", 2, nil, "ab", 1, true},
		{"backspace crlf", Backspace, "a\r\nb", 3, nil, "ab", 1, true},
		{"delete", Delete, "abc", 0, nil, "bc", 0, true},
		{"delete at end", Delete, "abc", 3, nil, "abc", 3, false},
		{"delete selection", Delete, "abcd", 0, sel(0, 2), "cd", 0, true},
		{"delete emoji", Delete, "👍🏽x", 0, nil, "x", 0, true},
		{"delete crlf", Delete, "a\r\nb", 1, nil, "ab", 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDoc(t, tt.content, "")
			res := apply(t, e, tt.action, Context{Offset: tt.offset, Doc: d, Selection: tt.selection})
			assert.Equal(t, tt.want, d.Text())
			assert.Equal(t, tt.wantOffset, res.Offset)
			assert.Equal(t, tt.changed, res.Changed)
		})
	}
}

func TestEnterKeepsIndentation(t *testing.T) {
	e := New()
	d := newDoc(t, "  foo", "")
	res := apply(t, e, Enter, Context{Offset: 5, Doc: d})
	assert.Equal(t, "  foo\n  ", d.Text())
	assert.Equal(t, 8, res.Offset)
	assert.True(t, res.Changed)

	d = newDoc(t, "\tab cd", "")
	res = apply(t, e, Enter, Context{Offset: 0, Doc: d, Selection: sel(3, 4)})
	assert.Equal(t, "\tab\n\tcd", d.Text())
	assert.Equal(t, 5, res.Offset)
	assert.Nil(t, res.Selection)
}

func TestIndentOutdentRoundTrip(t *testing.T) {
	e := New()
	d := newDoc(t, "a\nb\nc\n", "python")

	var inserts int
	d.Subscribe(engine.ListenerFunc(func(_ *engine.Document, c engine.Change) {
		if c.Edit.Text == "    " && c.Start.Column == 0 {
			inserts++
		}
	}))

	res := apply(t, e, Tab, Context{Offset: 5, Doc: d, Selection: sel(0, 5)})
	assert.Equal(t, "    a\n    b\n    c\n", d.Text())
	assert.Equal(t, 3, inserts)
	assert.Equal(t, 9, res.Offset)
	assert.Nil(t, res.Selection)

	res = apply(t, e, Untab, Context{Offset: res.Offset, Doc: d, Selection: sel(0, 17)})
	assert.Equal(t, "a\nb\nc\n", d.Text())
	assert.Equal(t, 5, res.Offset)

	res = apply(t, e, Undo, Context{Offset: res.Offset, Doc: d})
	assert.Equal(t, "    a\n    b\n    c\n", d.Text())
	res = apply(t, e, Undo, Context{Offset: res.Offset, Doc: d})
	assert.Equal(t, "a\nb\nc\n", d.Text(), "each action is one undo step")
	assert.False(t, d.CanUndo())
}

func TestIndentUnitWithoutLanguage(t *testing.T) {
	e := New()
	d := newDoc(t, "x\ny", "")
	res := apply(t, e, Tab, Context{Offset: 3, Doc: d})
	assert.Equal(t, "x\n\ty", d.Text())
	assert.Equal(t, 4, res.Offset)
}

func TestOutdent(t *testing.T) {
	e := New()

	d := newDoc(t, "\tx", "")
	res := apply(t, e, Untab, Context{Offset: 0, Doc: d})
	assert.Equal(t, "x", d.Text())
	assert.Equal(t, 0, res.Offset, "caret stays on its line")

	d = newDoc(t, "x\tx", "")
	res = apply(t, e, Untab, Context{Offset: 2, Doc: d})
	assert.Equal(t, "x\tx", d.Text(), "only leading indentation is removed")
	assert.False(t, res.Changed)
	assert.Equal(t, 2, res.Offset)
	assert.False(t, d.CanUndo())
}

func TestToggleComment(t *testing.T) {
	e := New()
	d := newDoc(t, "x\ny\n", "slash")

	res := apply(t, e, Comment, Context{Offset: 0, Doc: d, Selection: sel(0, 4)})
	assert.Equal(t, "// x\n// y\n", d.Text())
	assert.True(t, res.Changed)
	assert.Equal(t, 3, res.Offset)

	res = apply(t, e, Comment, Context{Offset: res.Offset, Doc: d, Selection: sel(0, d.Len())})
	assert.Equal(t, "x\ny\n", d.Text())
	assert.Equal(t, 0, res.Offset)

	apply(t, e, Undo, Context{Doc: d})
	assert.Equal(t, "// x\n// y\n", d.Text())
	apply(t, e, Undo, Context{Doc: d})
	assert.Equal(t, "x\ny\n", d.Text())
}

func TestToggleCommentDecidesOnce(t *testing.T) {
	e := New()
	d := newDoc(t, "// a\nb", "slash")
	apply(t, e, Comment, Context{Offset: 0, Doc: d, Selection: sel(0, d.Len())})
	assert.Equal(t, "a\nb", d.Text(), "any commented line uncomments them all")
}

func TestToggleCommentWithoutToken(t *testing.T) {
	e := New()
	d := newDoc(t, "x", "")
	res := apply(t, e, Comment, Context{Offset: 0, Doc: d})
	assert.False(t, res.Changed)
	assert.Equal(t, "x", d.Text())
}

func TestUndoRedoRestoreCaret(t *testing.T) {
	e := New()
	d := newDoc(t, "hello", "")

	res := apply(t, e, TextInput, Context{Offset: 5, Doc: d, Input: Input{Text: " world"}})
	require.Equal(t, 11, res.Offset)

	res = apply(t, e, Undo, Context{Offset: res.Offset, Doc: d})
	assert.Equal(t, "hello", d.Text())
	assert.Equal(t, 5, res.Offset)
	assert.True(t, res.Changed)

	res = apply(t, e, Redo, Context{Offset: res.Offset, Doc: d})
	assert.Equal(t, "hello world", d.Text())
	assert.Equal(t, 11, res.Offset)

	res = apply(t, e, Redo, Context{Offset: res.Offset, Doc: d})
	assert.False(t, res.Changed)
}

func TestSelectAllBackspaceUndo(t *testing.T) {
	e := New()
	d := newDoc(t, "abc\ndef", "")

	res := apply(t, e, SelectAll, Context{Offset: 7, Doc: d})
	require.NotNil(t, res.Selection)
	assert.Equal(t, cursor.New(0, 7), *res.Selection)
	assert.True(t, res.Changed)

	res = apply(t, e, Backspace, Context{Offset: res.Offset, Doc: d, Selection: res.Selection})
	assert.Equal(t, "", d.Text())
	assert.Equal(t, 0, res.Offset)

	res = apply(t, e, Undo, Context{Offset: res.Offset, Doc: d})
	assert.Equal(t, "abc\ndef", d.Text())
	assert.Equal(t, 0, res.Offset)
	assert.Nil(t, res.Selection)
	assert.False(t, d.CanUndo())
}

func TestUndoScansEditsWithoutCaret(t *testing.T) {
	e := New()
	d := newDoc(t, "ab", "")
	require.NoError(t, d.Insert("xy", 1))

	res := apply(t, e, Undo, Context{Offset: 3, Doc: d})
	assert.Equal(t, "ab", d.Text())
	assert.Equal(t, 1, res.Offset)

	res = apply(t, e, Redo, Context{Offset: res.Offset, Doc: d})
	assert.Equal(t, 3, res.Offset)

	_, err := d.Remove(0, 2)
	require.NoError(t, err)
	res = apply(t, e, Undo, Context{Offset: 0, Doc: d})
	assert.Equal(t, 2, res.Offset)
}

func TestClipboardActions(t *testing.T) {
	clip := &MemoryClipboard{}
	e := New(WithClipboard(clip))
	ctx := context.Background()
	d := newDoc(t, "hello world", "")

	res := apply(t, e, Copy, Context{Offset: 5, Doc: d, Selection: sel(6, 100)})
	assert.False(t, res.Changed)
	text, err := clip.ReadText(ctx)
	require.NoError(t, err)
	assert.Equal(t, "world", text)

	res = apply(t, e, Cut, Context{Offset: 5, Doc: d, Selection: sel(0, 5)})
	assert.True(t, res.Changed)
	assert.Equal(t, " world", d.Text())
	assert.Equal(t, 0, res.Offset)
	assert.Nil(t, res.Selection)
	text, _ = clip.ReadText(ctx)
	assert.Equal(t, "hello", text)

	res = apply(t, e, Paste, Context{Offset: 6, Doc: d})
	assert.Equal(t, " worldhello", d.Text())
	assert.Equal(t, 11, res.Offset)

	res = apply(t, e, Paste, Context{Offset: 0, Doc: d, Selection: sel(0, 6)})
	assert.Equal(t, "hellohello", d.Text())
	assert.Equal(t, 5, res.Offset)

	res = apply(t, e, Copy, Context{Offset: 0, Doc: d})
	assert.False(t, res.Changed, "copy without selection is a no-op")
}

func TestClipboardFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	clip := NewMockClipboard(ctrl)
	e := New(WithClipboard(clip))
	ctx := context.Background()
	boom := errors.New("denied")

	d := newDoc(t, "hello", "")

	clip.EXPECT().WriteText(ctx, "ell").Return(boom)
	res, err := e.Apply(ctx, Cut, Context{Offset: 1, Doc: d, Selection: sel(1, 4)})
	assert.ErrorIs(t, err, ErrClipboard)
	assert.ErrorIs(t, err, boom)
	assert.False(t, res.Changed)
	assert.Equal(t, "hello", d.Text())
	assert.False(t, d.CanUndo())

	clip.EXPECT().ReadText(ctx).Return("", boom)
	res, err = e.Apply(ctx, Paste, Context{Offset: 1, Doc: d})
	assert.ErrorIs(t, err, ErrClipboard)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.Offset)

	clip.EXPECT().ReadText(ctx).Return("", nil)
	res, err = e.Apply(ctx, Paste, Context{Offset: 1, Doc: d})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "hello", d.Text())
}

func TestSelectionPastEnd(t *testing.T) {
	clip := &MemoryClipboard{}
	require.NoError(t, clip.WriteText(context.Background(), "kept"))
	e := New(WithClipboard(clip))
	d := newDoc(t, "abc", "")

	// the caret sits where its own edit is a no-op
	for a, offset := range map[Action]int{Backspace: 0, Delete: 3, Cut: 1} {
		res := apply(t, e, a, Context{Offset: offset, Doc: d, Selection: sel(10, 20)})
		assert.False(t, res.Changed, a)
		assert.Equal(t, "abc", d.Text(), a)
		assert.False(t, d.CanUndo(), a)
	}
	text, err := clip.ReadText(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "kept", text)

	res := apply(t, e, Backspace, Context{Offset: 3, Doc: d, Selection: sel(2, 20)})
	assert.True(t, res.Changed)
	assert.Equal(t, "ab", d.Text())
}

func TestNoClipboard(t *testing.T) {
	e := New()
	d := newDoc(t, "hello", "")
	_, err := e.Apply(context.Background(), Paste, Context{Doc: d})
	assert.ErrorIs(t, err, ErrClipboard)
	_, err = e.Apply(context.Background(), Copy, Context{Doc: d, Selection: sel(0, 1)})
	assert.ErrorIs(t, err, ErrClipboard)
}

func TestApplyErrors(t *testing.T) {
	e := New()
	_, err := e.Apply(context.Background(), Backspace, Context{Offset: 1})
	assert.ErrorIs(t, err, ErrNoDocument)

	d := newDoc(t, "ab", "")
	res, err := e.Apply(context.Background(), Action("JUMP"), Context{Offset: 1, Doc: d})
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.Offset)

	d.Close()
	res, err = e.Apply(context.Background(), TextInput, Context{Offset: 1, Doc: d, Input: Input{Text: "x"}})
	assert.ErrorIs(t, err, engine.ErrClosed)
	assert.False(t, res.Changed)
	assert.Equal(t, "ab", d.Text())
}

func TestParseAction(t *testing.T) {
	for _, a := range All() {
		got, err := ParseAction(strings.ToLower(string(a)))
		require.NoError(t, err)
		assert.Equal(t, a, got)
	}
	a, err := ParseAction(" arrow-left-alt ")
	require.NoError(t, err)
	assert.Equal(t, ArrowLeftAlt, a)

	_, err = ParseAction("fly")
	assert.ErrorIs(t, err, ErrUnknownAction)

	assert.True(t, Paste.Mutates())
	assert.False(t, Copy.Mutates())
}
