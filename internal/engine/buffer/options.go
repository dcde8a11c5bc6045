package buffer

import (
	"fmt"
	"slices"
	"strings"
)

// LineEnding selects how line breaks in initial and inserted text are
// rewritten. The zero value leaves text untouched.
type LineEnding uint8

const (
	LineEndingNone LineEnding = iota
	LineEndingLF
	LineEndingCRLF
)

var lineEndingNames = []string{"none", "lf", "crlf"}

func (le LineEnding) String() string {
	if int(le) < len(lineEndingNames) {
		return lineEndingNames[le]
	}
	return fmt.Sprintf("LineEnding(%d)", uint8(le))
}

// ParseLineEnding is case-insensitive; "" means none.
func ParseLineEnding(s string) (LineEnding, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LineEndingNone, nil
	}
	if i := slices.Index(lineEndingNames, s); i >= 0 {
		return LineEnding(i), nil
	}
	return LineEndingNone, fmt.Errorf("unknown line ending %q", s)
}

type Option func(*Buffer)

// WithLineEnding makes the buffer rewrite line breaks. A host whose
// offsets refer to its own unnormalized text must not set this, since
// every rewrite shifts later offsets.
func WithLineEnding(le LineEnding) Option {
	return func(b *Buffer) { b.lineEnding = le }
}

// toLF folds CRLF and lone CR to LF.
var toLF = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalize(le LineEnding, s string) string {
	switch le {
	case LineEndingLF:
		return toLF.Replace(s)
	case LineEndingCRLF:
		return strings.ReplaceAll(toLF.Replace(s), "\n", "\r\n")
	}
	return s
}
