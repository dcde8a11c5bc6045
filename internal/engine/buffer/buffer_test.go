package buffer

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer("")

	assert.True(t, b.IsEmpty())
	assert.Equal(t, ByteOffset(0), b.Len())
	assert.Equal(t, Version(0), b.Version())
}

func TestNewBufferFromString(t *testing.T) {
	text := "Hello, World!"
	b := NewBuffer(text)

	assert.Equal(t, text, b.Text())
	assert.Equal(t, ByteOffset(len(text)), b.Len())
}

func TestBufferApplyEdit(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		edit    Edit
		want    string
		oldText string
	}{
		{"insert middle", "Hello World", NewInsert(5, ","), "Hello, World", ""},
		{"insert start", "World", NewInsert(0, "Hello "), "Hello World", ""},
		{"insert end", "Hello", NewInsert(5, " World"), "Hello World", ""},
		{"delete", "Hello, World!", NewDelete(5, 7), "HelloWorld!", ", "},
		{"replace", "Hello World", NewReplace(6, 11, "Go"), "Hello Go", "World"},
		{"replace all", "abc", NewReplace(0, 3, "xyz"), "xyz", "abc"},
		{"no-op", "abc", NewInsert(1, ""), "abc", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(tt.initial)

			desc := b.ApplyEdit(tt.edit)

			assert.Equal(t, tt.want, b.Text())
			assert.Equal(t, tt.oldText, desc.OldText)
			assert.Equal(t, Version(0), desc.FromVersion)
			assert.Equal(t, Version(1), desc.ToVersion)
			assert.Equal(t, ByteOffset(len(tt.want)), desc.NewLen)
			assert.Equal(t, tt.edit, desc.Edit)
		})
	}
}

func TestBufferVersionIncrementsPerEdit(t *testing.T) {
	b := NewBuffer("abc")

	for i := 1; i <= 5; i++ {
		desc := b.ApplyEdit(NewInsert(0, "x"))
		assert.Equal(t, Version(i-1), desc.FromVersion)
		assert.Equal(t, Version(i), desc.ToVersion)
	}

	assert.Equal(t, Version(5), b.Version())
	assert.Equal(t, "xxxxxabc", b.Text())
}

func TestBufferApplyEditDesync(t *testing.T) {
	tests := []struct {
		name string
		edit Edit
		want error
	}{
		{"past end", NewInsert(100, "X"), ErrOffsetOutOfRange},
		{"negative", NewInsert(-1, "X"), ErrOffsetOutOfRange},
		{"end past len", NewDelete(0, 6), ErrOffsetOutOfRange},
		{"inverted", NewDelete(3, 2), ErrRangeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer("Hello")

			defer func() {
				r := recover()
				require.NotNil(t, r, "ApplyEdit should panic")

				err, ok := r.(error)
				require.True(t, ok)

				var desync *DesyncError
				require.True(t, errors.As(err, &desync))
				assert.ErrorIs(t, err, tt.want)
				assert.Equal(t, "Hello", b.Text(), "text must be untouched")
				assert.Equal(t, Version(0), b.Version())
			}()

			b.ApplyEdit(tt.edit)
		})
	}
}

func TestBufferCheckEdit(t *testing.T) {
	b := NewBuffer("Hello")

	assert.NoError(t, b.CheckEdit(NewReplace(0, 5, "x")))
	assert.ErrorIs(t, b.CheckEdit(NewInsert(6, "x")), ErrOffsetOutOfRange)
	assert.ErrorIs(t, b.CheckEdit(NewDelete(4, 2)), ErrRangeInvalid)
}

func TestBufferTextRange(t *testing.T) {
	b := NewBuffer("The cat sat.")

	got, err := b.TextRange(NewRange(4, 7))
	require.NoError(t, err)
	assert.Equal(t, "cat", got)

	_, err = b.TextRange(NewRange(4, 100))
	assert.ErrorIs(t, err, ErrRangeInvalid)
}

func TestBufferSnapshot(t *testing.T) {
	b := NewBuffer("original")
	snap := b.Snapshot()

	b.ApplyEdit(NewReplace(0, 8, "modified"))

	assert.Equal(t, "original", snap.Text)
	assert.Equal(t, Version(0), snap.Version)
	assert.Equal(t, ByteOffset(8), snap.Len())
	assert.Equal(t, "modified", b.Text())
}

func TestBufferLineEndingNormalization(t *testing.T) {
	b := NewBuffer("a\r\nb", WithLineEnding(LineEndingLF))
	assert.Equal(t, "a\nb", b.Text())

	desc := b.ApplyEdit(NewInsert(3, "\r\nc"))
	assert.Equal(t, "a\nb\nc", b.Text())
	assert.Equal(t, "\nc", desc.Edit.NewText, "descriptor carries the normalized text")

	crlf := NewBuffer("a\nb\rc\r\n", WithLineEnding(LineEndingCRLF))
	assert.Equal(t, "a\r\nb\r\nc\r\n", crlf.Text())
}

func TestParseLineEnding(t *testing.T) {
	for in, want := range map[string]LineEnding{"": LineEndingNone, "none": LineEndingNone, "LF": LineEndingLF, "crlf": LineEndingCRLF} {
		got, err := ParseLineEnding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLineEnding("cr")
	assert.Error(t, err)

	for _, le := range []LineEnding{LineEndingNone, LineEndingLF, LineEndingCRLF} {
		got, err := ParseLineEnding(le.String())
		require.NoError(t, err)
		assert.Equal(t, le, got)
	}
}

func TestBufferConcurrentRead(t *testing.T) {
	b := NewBuffer("Hello, World!")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Text()
			_ = b.Len()
			_ = b.Version()
		}()
	}
	wg.Wait()
}

func TestRangeOperations(t *testing.T) {
	r := NewRange(5, 10)

	assert.Equal(t, ByteOffset(5), r.Len())
	assert.False(t, r.IsEmpty())
	assert.True(t, r.IsValid())
	assert.True(t, r.Contains(5))
	assert.False(t, r.Contains(10))
	assert.True(t, r.Overlaps(NewRange(9, 12)))
	assert.False(t, r.Overlaps(NewRange(10, 12)))
	assert.False(t, NewRange(5, 5).Contains(5))
	assert.Equal(t, "[5:10)", r.String())

	assert.True(t, r.Within(10))
	assert.False(t, r.Within(9))
	assert.False(t, NewRange(-1, 2).Within(10))
	assert.False(t, NewRange(3, 2).Within(10))
}

func TestEditOperations(t *testing.T) {
	tests := []struct {
		edit  Edit
		shape Shape
		delta ByteOffset
		str   string
	}{
		{NewInsert(3, "abc"), ShapeInsert, 3, `insert[3:3) "abc"`},
		{NewDelete(2, 6), ShapeDelete, -4, `delete[2:6) ""`},
		{NewReplace(0, 2, "xyz"), ShapeReplace, 1, `replace[0:2) "xyz"`},
		{NewInsert(0, ""), ShapeNoop, 0, `noop[0:0) ""`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.shape, tt.edit.Shape(), tt.str)
		assert.Equal(t, tt.delta, tt.edit.Delta(), tt.str)
		assert.Equal(t, tt.str, tt.edit.String())
	}
}

func TestEditDescriptorNewRange(t *testing.T) {
	b := NewBuffer("The cat sat.")
	desc := b.ApplyEdit(NewReplace(4, 7, "tiger"))

	assert.Equal(t, NewRange(4, 9), desc.NewRange())
	assert.Equal(t, `replace[4:7) "tiger" v0->v1`, desc.String())
}
