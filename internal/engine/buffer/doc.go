// Package buffer holds the authoritative document text for the suggestion
// engine together with the offset, range and edit types shared by every
// component that stores positions.
//
// The buffer provides:
//
//   - A single document string with a monotonically increasing version
//   - Edit application that reports an EditDescriptor for re-mapping
//   - Read-only snapshots
//   - Optional line ending normalization of inserted text
//
// Basic usage:
//
//	buf := buffer.NewBuffer("The cat sat.")
//
//	desc := buf.ApplyEdit(buffer.NewReplace(4, 7, "dog"))
//	// buf.Text() == "The dog sat.", desc.ToVersion == 1
//
// Position Types:
//
// All positions are byte offsets into the UTF-8 text. Ranges are half-open,
// [Start, End).
//
// Failure Model:
//
// ApplyEdit panics with a *DesyncError when an edit's offsets fall outside
// the document. That situation means the host and the buffer no longer agree
// on the text; it is a programming error and is not recovered. Use CheckEdit
// to probe an edit without applying it.
package buffer
