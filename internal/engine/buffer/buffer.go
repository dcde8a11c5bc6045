package buffer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// DesyncError reports an edit whose offsets do not fit the document.
// It means the host and the buffer disagree about the text, and is raised
// as a panic by ApplyEdit.
type DesyncError struct {
	Edit    Edit
	Len     ByteOffset
	Version Version
	Err     error
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("buffer desynchronized at %s (len %d): %s: %v", e.Version, e.Len, e.Edit, e.Err)
}

func (e *DesyncError) Unwrap() error {
	return e.Err
}

// Buffer owns the authoritative document text and its version counter.
// All methods are safe for concurrent use.
type Buffer struct {
	mu         sync.RWMutex
	text       string
	version    Version
	lineEnding LineEnding
}

// NewBuffer creates a buffer with initial content at version 0.
func NewBuffer(text string, opts ...Option) *Buffer {
	b := &Buffer{}
	for _, opt := range opts {
		opt(b)
	}
	b.text = normalize(b.lineEnding, text)
	return b
}

// Read Operations

// Text returns the full document content.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Len returns the total byte length of the document.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// Version returns the current document version.
func (b *Buffer) Version() Version {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// TextRange returns the text in the given range.
func (b *Buffer) TextRange(r Range) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !r.Within(ByteOffset(len(b.text))) {
		return "", fmt.Errorf("text range %s: %w", r, ErrRangeInvalid)
	}
	return b.text[r.Start:r.End], nil
}

// IsEmpty returns true if the document is empty.
func (b *Buffer) IsEmpty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.text) == 0
}

// Snapshot returns a read-only copy of the current document state.
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{Text: b.text, Version: b.version}
}

// Write Operations

// CheckEdit reports whether the edit fits the current document.
func (b *Buffer) CheckEdit(edit Edit) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return checkEdit(edit, ByteOffset(len(b.text)))
}

func checkEdit(edit Edit, length ByteOffset) error {
	if edit.Range.Start > edit.Range.End {
		return ErrRangeInvalid
	}
	if edit.Range.Start < 0 || edit.Range.End > length {
		return ErrOffsetOutOfRange
	}
	return nil
}

// ApplyEdit splices the edit into the text, advances the version by one and
// returns the descriptor dependents need to re-map their offsets.
//
// Offsets that do not fit the document panic with a *DesyncError. Continuing
// would corrupt the text, so the failure is not recoverable here.
func (b *Buffer) ApplyEdit(edit Edit) EditDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()

	length := ByteOffset(len(b.text))
	if err := checkEdit(edit, length); err != nil {
		panic(&DesyncError{Edit: edit, Len: length, Version: b.version, Err: err})
	}

	edit.NewText = normalize(b.lineEnding, edit.NewText)
	oldText := b.text[edit.Range.Start:edit.Range.End]

	var sb strings.Builder
	sb.Grow(len(b.text) + len(edit.NewText) - len(oldText))
	sb.WriteString(b.text[:edit.Range.Start])
	sb.WriteString(edit.NewText)
	sb.WriteString(b.text[edit.Range.End:])
	b.text = sb.String()

	from := b.version
	b.version++

	return EditDescriptor{
		Edit:        edit,
		OldText:     oldText,
		FromVersion: from,
		ToVersion:   b.version,
		NewLen:      ByteOffset(len(b.text)),
	}
}

// Snapshot is an immutable view of the document at one version.
type Snapshot struct {
	Text    string
	Version Version
}

// Len returns the byte length of the snapshot text.
func (s Snapshot) Len() ByteOffset {
	return ByteOffset(len(s.Text))
}
