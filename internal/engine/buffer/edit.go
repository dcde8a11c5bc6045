package buffer

import "fmt"

// Edit replaces Range with NewText. Both are in the coordinates of the
// version the edit is applied to.
type Edit struct {
	Range   Range
	NewText string
}

// Shape classifies an edit by which of its two halves are empty.
type Shape uint8

const (
	// ShapeNoop removes nothing and inserts nothing.
	ShapeNoop Shape = iota
	// ShapeInsert inserts text at an empty range.
	ShapeInsert
	// ShapeDelete removes a range and inserts nothing.
	ShapeDelete
	// ShapeReplace removes a range and inserts text in its place.
	ShapeReplace
)

// String returns the lower-case shape name.
func (s Shape) String() string {
	return [...]string{"noop", "insert", "delete", "replace"}[s]
}

// NewEdit replaces r with text.
func NewEdit(r Range, text string) Edit { return Edit{Range: r, NewText: text} }

// NewInsert inserts text at offset at.
func NewInsert(at ByteOffset, text string) Edit { return NewEdit(NewRange(at, at), text) }

// NewDelete removes [start, end).
func NewDelete(start, end ByteOffset) Edit { return NewEdit(NewRange(start, end), "") }

// NewReplace replaces [start, end) with text.
func NewReplace(start, end ByteOffset, text string) Edit {
	return NewEdit(NewRange(start, end), text)
}

// Shape classifies the edit.
func (e Edit) Shape() Shape {
	switch removes, adds := !e.Range.IsEmpty(), e.NewText != ""; {
	case removes && adds:
		return ShapeReplace
	case removes:
		return ShapeDelete
	case adds:
		return ShapeInsert
	}
	return ShapeNoop
}

// String formats the edit as its shape, range and quoted new text.
func (e Edit) String() string {
	return fmt.Sprintf("%s%s %q", e.Shape(), e.Range, e.NewText)
}

// InsertedLen is the byte length of NewText.
func (e Edit) InsertedLen() ByteOffset { return ByteOffset(len(e.NewText)) }

// Delta is how much the document grows (or shrinks, if negative).
func (e Edit) Delta() ByteOffset { return e.InsertedLen() - e.Range.Len() }

// EditDescriptor records an applied edit. Every component that stores
// offsets maps them through the descriptor's Edit.
type EditDescriptor struct {
	Edit        Edit
	OldText     string
	FromVersion Version
	ToVersion   Version
	NewLen      ByteOffset
}

// NewRange is where the inserted text landed, in post-edit offsets.
func (d EditDescriptor) NewRange() Range {
	start := d.Edit.Range.Start
	return NewRange(start, start+d.Edit.InsertedLen())
}

// String formats the edit with its version transition.
func (d EditDescriptor) String() string {
	return fmt.Sprintf("%s %s->%s", d.Edit, d.FromVersion, d.ToVersion)
}
