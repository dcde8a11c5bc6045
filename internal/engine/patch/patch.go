package patch

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/dshills/marginalia/internal/engine/buffer"
	"github.com/dshills/marginalia/internal/engine/suggest"
)

// DefaultContext is the number of unchanged lines around each change.
const DefaultContext = 3

const noNewline = "\\ No newline at end of file\n"

// Result is a rendered patch.
type Result struct {
	// Diff is the unified diff. It is empty when nothing would change.
	Diff []byte

	// Skipped lists ids of suggestions left out because they overlap an
	// earlier suggestion.
	Skipped []string

	// Text is the document as it would read with every included suggestion
	// accepted.
	Text string
}

// Render builds a unified diff showing what accepting every pending
// suggestion would do to text. Suggestions are applied in Range.Start order;
// one that overlaps a suggestion already included is skipped.
func Render(name, text string, pending []suggest.Suggestion, contextLines int) (Result, error) {
	if contextLines < 0 {
		contextLines = 0
	}

	edits, skipped, err := collect(text, pending)
	if err != nil {
		return Result{}, err
	}

	res := Result{Skipped: skipped, Text: splice(text, edits)}
	if len(edits) == 0 {
		return res, nil
	}

	doc := newLineIndex(text)
	groups := slices.DeleteFunc(doc.group(edits), func(g *group) bool {
		return text[g.lo:g.hi] == g.newSeg
	})
	if len(groups) == 0 {
		return res, nil
	}

	fd := &diff.FileDiff{
		OrigName: "a/" + name,
		NewName:  "b/" + name,
		Hunks:    doc.hunks(groups, contextLines),
	}

	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return Result{}, fmt.Errorf("print diff for %s: %w", name, err)
	}
	res.Diff = out
	return res, nil
}

func collect(text string, pending []suggest.Suggestion) ([]buffer.Edit, []string, error) {
	ordered := make([]suggest.Suggestion, len(pending))
	copy(ordered, pending)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Range.Start < ordered[j].Range.Start
	})

	length := buffer.ByteOffset(len(text))
	var (
		edits   []buffer.Edit
		skipped []string
		lastEnd buffer.ByteOffset
	)
	for _, s := range ordered {
		if !s.Range.Within(length) {
			return nil, nil, fmt.Errorf("suggestion %s: %w", s.ID, &suggest.RangeError{Range: s.Range, Len: length})
		}
		if s.Edit().Shape() == buffer.ShapeNoop {
			continue
		}
		if len(edits) > 0 && s.Range.Start < lastEnd {
			skipped = append(skipped, s.ID)
			continue
		}
		edits = append(edits, s.Edit())
		lastEnd = s.Range.End
	}
	return edits, skipped, nil
}

// splice applies non-overlapping edits, ordered by start, to text.
func splice(text string, edits []buffer.Edit) string {
	var b strings.Builder
	pos := buffer.ByteOffset(0)
	for _, e := range edits {
		b.WriteString(text[pos:e.Range.Start])
		b.WriteString(e.NewText)
		pos = e.Range.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// lineIndex maps byte offsets to line numbers. A document ending in a
// newline has an extra empty line at its end so insertions there touch no
// existing line.
type lineIndex struct {
	text   string
	starts []int
	lines  int
}

func newLineIndex(text string) *lineIndex {
	idx := &lineIndex{text: text, starts: []int{0}}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			idx.starts = append(idx.starts, i+1)
		}
	}
	idx.lines = len(splitLines(text))
	return idx
}

func (l *lineIndex) lineOf(off int) int {
	return sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > off }) - 1
}

func (l *lineIndex) lineEnd(line int) int {
	if line+1 < len(l.starts) {
		return l.starts[line+1]
	}
	return len(l.text)
}

// group is a run of edits that share or abut lines, with its whole-line
// old span. Abutting edits must share a group: a group whose new text
// ends without a newline at EOF cannot be followed by another.
type group struct {
	lo, hi int
	edits  []buffer.Edit
	newSeg string
}

func (l *lineIndex) group(edits []buffer.Edit) []*group {
	var (
		groups []*group
		cur    *group
	)
	for _, e := range edits {
		lo, hi := l.expand(e)
		if cur != nil && lo <= cur.hi {
			cur.edits = append(cur.edits, e)
			cur.hi = max(cur.hi, hi)
		} else {
			cur = &group{lo: lo, hi: hi, edits: []buffer.Edit{e}}
			groups = append(groups, cur)
		}
		l.settle(cur)
	}
	return groups
}

// expand widens an edit to the whole lines it touches.
func (l *lineIndex) expand(e buffer.Edit) (int, int) {
	s, end := int(e.Range.Start), int(e.Range.End)
	lo := l.starts[l.lineOf(s)]

	if s == end && s == lo && strings.HasSuffix(e.NewText, "\n") {
		return lo, lo
	}
	if end > s && l.text[end-1] == '\n' {
		return lo, end
	}
	return lo, l.lineEnd(l.lineOf(end))
}

// settle computes the group's new text and widens it until that text ends
// on a line boundary.
func (l *lineIndex) settle(g *group) {
	for {
		var b strings.Builder
		pos := g.lo
		for _, e := range g.edits {
			b.WriteString(l.text[pos:int(e.Range.Start)])
			b.WriteString(e.NewText)
			pos = int(e.Range.End)
		}
		b.WriteString(l.text[pos:g.hi])
		g.newSeg = b.String()

		if g.newSeg == "" || strings.HasSuffix(g.newSeg, "\n") || g.hi >= len(l.text) {
			return
		}
		g.hi = l.lineEnd(l.lineOf(g.hi))
	}
}

func (l *lineIndex) hunks(groups []*group, context int) []*diff.Hunk {
	var (
		hunks []*diff.Hunk
		delta int
	)

	for i := 0; i < len(groups); {
		first := groups[i]
		ctxLo := max(0, l.lineOf(first.lo)-context)

		j := i
		var body strings.Builder
		origLines, newLines := 0, 0
		cursor := ctxLo
		groupDelta := 0

		for {
			g := groups[j]
			gLo := l.lineOf(g.lo)
			oldSeg := splitLines(l.text[g.lo:g.hi])
			newSeg := splitLines(g.newSeg)

			n := l.context(&body, cursor, gLo)
			origLines += n
			newLines += n
			writeLines(&body, "-", oldSeg)
			writeLines(&body, "+", newSeg)
			origLines += len(oldSeg)
			newLines += len(newSeg)
			groupDelta += len(newSeg) - len(oldSeg)
			cursor = gLo + len(oldSeg)

			if j+1 >= len(groups) || l.lineOf(groups[j+1].lo)-context > cursor+context {
				break
			}
			j++
		}

		ctxHi := min(l.lines, cursor+context)
		n := l.context(&body, cursor, ctxHi)
		origLines += n
		newLines += n

		h := &diff.Hunk{
			OrigStartLine: startLine(ctxLo, origLines),
			OrigLines:     int32(origLines),
			NewStartLine:  startLine(ctxLo+delta, newLines),
			NewLines:      int32(newLines),
			Body:          []byte(body.String()),
		}
		hunks = append(hunks, h)

		delta += groupDelta
		i = j + 1
	}
	return hunks
}

// context writes unchanged lines [from, to) and returns how many it wrote.
func (l *lineIndex) context(b *strings.Builder, from, to int) int {
	n := 0
	for line := from; line < to && line < l.lines; line++ {
		writeLines(b, " ", []string{l.text[l.starts[line]:l.lineEnd(line)]})
		n++
	}
	return n
}

func startLine(idx, count int) int32 {
	if count == 0 {
		return int32(idx)
	}
	return int32(idx + 1)
}

func writeLines(b *strings.Builder, prefix string, lines []string) {
	for _, line := range lines {
		b.WriteString(prefix)
		b.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			b.WriteString("\n")
			b.WriteString(noNewline)
		}
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
