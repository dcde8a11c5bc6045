// Package beacon tracks the caret position to show while the editor is
// unfocused.
//
// The tracker is a two-state machine, Idle and Armed. Blurring the editor
// with a bare caret arms it; focusing, blurring with a selection, or making
// a selection clears it. While armed, the position follows document edits
// with right bias, the same way a real caret would.
package beacon
