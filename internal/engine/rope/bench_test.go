package rope

import (
	"strings"
	"testing"
)

func benchRope() Rope {
	return FromString(strings.Repeat("The quick brown fox jumps over the lazy dog.\n", 20000))
}

func BenchmarkInsertMiddle(b *testing.B) {
	r := benchRope()
	mid := r.Len() / 2
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Insert(mid, "x")
	}
}

func BenchmarkDeleteMiddle(b *testing.B) {
	r := benchRope()
	mid := r.Len() / 2
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Delete(mid, mid+10)
	}
}

func BenchmarkLineStart(b *testing.B) {
	r := benchRope()
	n := r.LineCount()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.LineStart(i % n)
	}
}

func BenchmarkOffsetToPoint(b *testing.B) {
	r := benchRope()
	n := r.Len()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.OffsetToPoint((i * 7919) % n)
	}
}
