package suggest

import (
	"fmt"
	"strings"

	"github.com/dshills/marginalia/internal/engine/buffer"
)

// Kind is the shape of a proposed edit.
type Kind uint8

const (
	// KindAdd inserts ProposedText at Range.Start. Its range is usually empty.
	KindAdd Kind = iota + 1

	// KindDelete removes the text in Range.
	KindDelete

	// KindReplace removes the text in Range and inserts ProposedText.
	KindReplace
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindDelete:
		return "delete"
	case KindReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// IsValid returns true for the defined kinds.
func (k Kind) IsValid() bool {
	return k >= KindAdd && k <= KindReplace
}

// ParseKind parses "add", "delete" or "replace" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add", "insert":
		return KindAdd, nil
	case "delete", "remove":
		return KindDelete, nil
	case "replace":
		return KindReplace, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Status is the lifecycle state of a suggestion.
// Pending moves to exactly one of the terminal states.
type Status uint8

const (
	StatusPending Status = iota
	StatusAccepted
	StatusRejected
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IsTerminal returns true for Accepted and Rejected.
func (s Status) IsTerminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Reason records why a suggestion left the Pending state.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonUserAccepted
	ReasonUserRejected

	// ReasonRangeInvalidated means an edit destroyed the text the suggestion
	// targeted and it was rejected automatically.
	ReasonRangeInvalidated
)

// String returns the string representation of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUserAccepted:
		return "user-accepted"
	case ReasonUserRejected:
		return "user-rejected"
	case ReasonRangeInvalidated:
		return "range-invalidated"
	default:
		return "unknown"
	}
}

// Suggestion is a proposed edit overlaid on the document.
type Suggestion struct {
	ID           string
	Kind         Kind
	Range        buffer.Range
	OriginalText string
	ProposedText string
	Status       Status
	Reason       Reason

	// BaseVersion is the document version the suggestion was registered at.
	BaseVersion buffer.Version

	seq uint64
}

// Edit returns the document edit that accepting the suggestion applies.
func (s Suggestion) Edit() buffer.Edit {
	switch s.Kind {
	case KindAdd:
		return buffer.NewInsert(s.Range.Start, s.ProposedText)
	case KindDelete:
		return buffer.NewDelete(s.Range.Start, s.Range.End)
	default:
		return buffer.NewReplace(s.Range.Start, s.Range.End, s.ProposedText)
	}
}

// String returns a human-readable representation of the suggestion.
func (s Suggestion) String() string {
	return fmt.Sprintf("%s %s%s %q->%q (%s)", s.ID, s.Kind, s.Range, s.OriginalText, s.ProposedText, s.Status)
}

// Proposal is the input to Register.
// ID may be empty, in which case a random one is assigned.
type Proposal struct {
	ID           string
	Kind         Kind
	Range        buffer.Range
	OriginalText string
	ProposedText string
}

// Resolution is the outcome of Accept or Reject.
type Resolution struct {
	// Suggestion is the resolved suggestion in its terminal state.
	// It is the zero value when AlreadyResolved is true.
	Suggestion Suggestion

	// Edit is the edit the caller must apply to the document.
	// Only set for an accepted suggestion.
	Edit buffer.Edit

	// AlreadyResolved reports a duplicate resolution: the id was unknown or
	// had already left the Pending state. Nothing changed.
	AlreadyResolved bool
}
