package buffer

import "fmt"

// ByteOffset represents a byte position in the document.
// This is the fundamental position type, directly indexing into the text.
type ByteOffset = int64

// Version counts the edits applied to a document.
// A fresh buffer is at version 0 and every applied edit adds exactly one.
type Version uint64

// String returns a human-readable representation of the version.
func (v Version) String() string {
	return fmt.Sprintf("v%d", uint64(v))
}
