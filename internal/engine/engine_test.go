package engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/marginalia/internal/config"
	"github.com/dshills/marginalia/internal/engine/buffer"
	"github.com/dshills/marginalia/internal/engine/suggest"
	"github.com/dshills/marginalia/internal/event"
	"github.com/dshills/marginalia/internal/metrics"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("s%d", n)
	})
}

// recorder is a Listener that logs every notification it receives.
type recorder struct {
	mu     sync.Mutex
	events []string

	pending    [][]Suggestion
	beacons    []BeaconChanged
	highlights []HighlightsChanged
	edits      []EditApplied
}

func (r *recorder) SuggestionsChanged(p SuggestionsChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("suggestions(%d)", len(p.Pending)))
	r.pending = append(r.pending, p.Pending)
}

func (r *recorder) BeaconChanged(p BeaconChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("beacon(%d,%t)", p.Position, p.Set))
	r.beacons = append(r.beacons, p)
}

func (r *recorder) HighlightsChanged(p HighlightsChanged) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("highlights(%d)", len(p.Ranges)))
	r.highlights = append(r.highlights, p)
}

func (r *recorder) EditApplied(p EditApplied) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("edit(%s)", p.Source))
	r.edits = append(r.edits, p)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.pending = nil
	r.beacons = nil
	r.highlights = nil
	r.edits = nil
}

func newTestEngine(t *testing.T, text string, opts ...Option) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{sequentialIDs(), WithListener(rec)}, opts...)
	return New(text, opts...), rec
}

func TestEngineAcceptScenario(t *testing.T) {
	e, rec := newTestEngine(t, "The cat sat.")
	v0 := e.Version()

	s, err := e.RegisterSuggestion(KindReplace, 4, 7, "cat", "dog")
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	require.Len(t, rec.pending, 1)
	assert.Len(t, rec.pending[0], 1)

	res := e.Accept(s.ID)
	require.False(t, res.AlreadyResolved)
	assert.Equal(t, "The dog sat.", e.Text())
	assert.Empty(t, e.Pending())
	assert.Equal(t, v0+1, e.Version())
	assert.Equal(t, suggest.StatusAccepted, res.Suggestion.Status)
	assert.Equal(t, v0+1, res.Descriptor.ToVersion)

	require.Len(t, rec.edits, 1)
	assert.Equal(t, SourceAccept, rec.edits[0].Source)
	assert.Equal(t, "dog", rec.edits[0].Descriptor.Edit.NewText)
	assert.Empty(t, rec.pending[len(rec.pending)-1])
}

func TestEngineAcceptAfterInsert(t *testing.T) {
	e, rec := newTestEngine(t, "The cat sat.")

	s, err := e.RegisterSuggestion(KindReplace, 4, 7, "cat", "dog")
	require.NoError(t, err)

	e.CommitEdit(4, 4, "fat ")
	assert.Equal(t, "The fat cat sat.", e.Text())

	pending := e.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, Range{Start: 8, End: 11}, pending[0].Range)
	require.Len(t, rec.edits, 1)
	assert.Equal(t, SourceHost, rec.edits[0].Source)

	res := e.Accept(s.ID)
	require.False(t, res.AlreadyResolved)
	assert.Equal(t, "The fat dog sat.", e.Text())
}

func TestEngineAcceptIdempotent(t *testing.T) {
	e, rec := newTestEngine(t, "The cat sat.")
	s, err := e.RegisterSuggestion(KindReplace, 4, 7, "cat", "dog")
	require.NoError(t, err)

	first := e.Accept(s.ID)
	require.False(t, first.AlreadyResolved)
	version := e.Version()
	rec.reset()

	second := e.Accept(s.ID)
	assert.True(t, second.AlreadyResolved)
	assert.Equal(t, "The dog sat.", e.Text())
	assert.Equal(t, version, e.Version())
	assert.False(t, e.Reject(s.ID))
	assert.Empty(t, rec.events)
}

func TestEngineRegisterInvalid(t *testing.T) {
	e, rec := newTestEngine(t, "short")

	_, err := e.RegisterSuggestion(KindReplace, 2, 50, "ort", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = e.RegisterSuggestion(Kind(99), 0, 1, "s", "x")
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = e.Register(Proposal{ID: "dup", Kind: KindAdd, Range: Range{Start: 0, End: 0}, ProposedText: "a"})
	require.NoError(t, err)
	_, err = e.Register(Proposal{ID: "dup", Kind: KindAdd, Range: Range{Start: 1, End: 1}, ProposedText: "b"})
	assert.ErrorIs(t, err, ErrDuplicateID)

	assert.Len(t, e.Pending(), 1)
	assert.Len(t, rec.pending, 1)
}

func TestEngineInvalidationOnOverlap(t *testing.T) {
	text := "0123456789abcdefghijklmnopqrst"
	e, rec := newTestEngine(t, text)

	var resolved []Suggestion
	_, err := e.Bus().SubscribeFunc(TopicSuggestionResolved, func(_ context.Context, ev any) error {
		resolved = append(resolved, ev.(event.Event[SuggestionResolved]).Payload.Suggestion)
		return nil
	})
	require.NoError(t, err)

	s, err := e.RegisterSuggestion(KindReplace, 10, 20, text[10:20], "X")
	require.NoError(t, err)

	e.CommitEdit(12, 15, "")

	assert.Empty(t, e.Pending())
	require.Len(t, resolved, 1)
	assert.Equal(t, s.ID, resolved[0].ID)
	assert.Equal(t, suggest.StatusRejected, resolved[0].Status)
	assert.Equal(t, suggest.ReasonRangeInvalidated, resolved[0].Reason)
	assert.Empty(t, rec.pending[len(rec.pending)-1])

	res := e.Accept(s.ID)
	assert.True(t, res.AlreadyResolved)
}

func TestEngineBeaconLifecycle(t *testing.T) {
	e, rec := newTestEngine(t, strings.Repeat("x", 60))

	e.Blur(Selection{Anchor: 42, Head: 42})
	pos, ok := e.Beacon()
	require.True(t, ok)
	assert.Equal(t, ByteOffset(42), pos)

	e.CommitEdit(0, 0, "abcde")
	pos, ok = e.Beacon()
	require.True(t, ok)
	assert.Equal(t, ByteOffset(47), pos)

	e.Focus()
	_, ok = e.Beacon()
	assert.False(t, ok)

	assert.Equal(t, []BeaconChanged{
		{Position: 42, Set: true},
		{Position: 47, Set: true},
		{Position: 0, Set: false},
	}, rec.beacons)
}

func TestEngineBlurClampsCaret(t *testing.T) {
	tests := []struct {
		name string
		head ByteOffset
		want ByteOffset
	}{
		{"past end", 99, 3},
		{"negative", -4, 0},
		{"at end", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, rec := newTestEngine(t, "abc")

			e.Blur(Selection{Anchor: tt.head, Head: tt.head})
			pos, ok := e.Beacon()
			require.True(t, ok)
			assert.Equal(t, tt.want, pos)
			assert.Equal(t, []BeaconChanged{{Position: tt.want, Set: true}}, rec.beacons)

			e.CommitEdit(0, 3, "")
			pos, ok = e.Beacon()
			require.True(t, ok)
			assert.Equal(t, ByteOffset(0), pos)
		})
	}
}

func TestEngineSelectionChange(t *testing.T) {
	e, rec := newTestEngine(t, "hello world")

	e.Blur(Selection{Anchor: 5, Head: 5})
	pos, ok := e.Beacon()
	require.True(t, ok)
	assert.Equal(t, ByteOffset(5), pos)

	// A caret move leaves the beacon alone and publishes nothing.
	e.SelectionChange(Selection{Anchor: 6, Head: 6})
	pos, ok = e.Beacon()
	assert.True(t, ok)
	assert.Equal(t, ByteOffset(5), pos)
	assert.Len(t, rec.beacons, 1)

	e.SelectionChange(Selection{Anchor: 0, Head: 5})
	_, ok = e.Beacon()
	assert.False(t, ok)
	require.Len(t, rec.beacons, 2)
	assert.False(t, rec.beacons[1].Set)

	// Blurring with a selection marks nothing.
	e.Blur(Selection{Anchor: 0, Head: 5})
	_, ok = e.Beacon()
	assert.False(t, ok)
	assert.Len(t, rec.beacons, 2)
}

func TestEngineHighlights(t *testing.T) {
	e, rec := newTestEngine(t, "one two three")

	err := e.SetHighlightRanges([]Highlight{
		{Range: Range{Start: 8, End: 13}, Tag: "spelling"},
		{Range: Range{Start: 4, End: 7}, Tag: "grammar"},
	})
	require.NoError(t, err)
	require.Len(t, rec.highlights, 1)
	assert.Len(t, rec.highlights[0].Ranges, 2)

	e.CommitEdit(0, 0, ">> ")
	got := e.Highlights()
	require.Len(t, got, 2)
	assert.Equal(t, Range{Start: 7, End: 10}, got[0].Range)
	assert.Equal(t, Range{Start: 11, End: 16}, got[1].Range)
	assert.Len(t, rec.highlights, 2)

	err = e.SetHighlightRanges([]Highlight{
		{Range: Range{Start: 0, End: 2}},
		{Range: Range{Start: 5, End: 100}},
	})
	assert.ErrorIs(t, err, ErrInvalidHighlight)
	assert.Len(t, e.Highlights(), 1)
	assert.Len(t, rec.highlights, 3)
}

func TestEngineNotificationOrder(t *testing.T) {
	e, rec := newTestEngine(t, "The cat sat.")
	e.Blur(Selection{Anchor: 12, Head: 12})
	_, err := e.RegisterSuggestion(KindReplace, 4, 7, "cat", "a dog")
	require.NoError(t, err)
	_, err = e.RegisterSuggestion(KindAdd, 11, 11, "", " down")
	require.NoError(t, err)
	rec.reset()

	e.Accept("s1")

	assert.Equal(t, []string{
		"edit(accept)",
		"suggestions(1)",
		"beacon(14,true)",
	}, rec.events)

	pending := e.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, Range{Start: 13, End: 13}, pending[0].Range)
}

func TestEngineListenerReentrancy(t *testing.T) {
	var e *Engine
	var seen []string

	e = New("The cat sat.", sequentialIDs(), WithListener(ListenerFuncs{
		OnEditApplied: func(p EditApplied) {
			seen = append(seen, e.Text())
			if p.Source == SourceHost && len(e.Pending()) == 0 {
				_, err := e.RegisterSuggestion(KindReplace, 4, 7, "cat", "dog")
				assert.NoError(t, err)
			}
		},
	}))

	e.CommitEdit(12, 12, "!")
	assert.Equal(t, []string{"The cat sat.!"}, seen)
	require.Len(t, e.Pending(), 1)

	res := e.Accept("s1")
	require.False(t, res.AlreadyResolved)
	assert.Equal(t, "The dog sat.!", e.Text())
}

func TestEngineDesyncPanics(t *testing.T) {
	e, rec := newTestEngine(t, "abc")

	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r, "commit outside the document must panic")
			derr, ok := r.(*DesyncError)
			require.True(t, ok, "panic value %T", r)
			assert.ErrorIs(t, derr, buffer.ErrOffsetOutOfRange)
		}()
		e.CommitEdit(2, 10, "x")
	}()
	assert.Empty(t, rec.edits)

	// The lock was released on the way out.
	assert.Equal(t, "abc", e.Text())
	_, err := e.RegisterSuggestion(KindAdd, 3, 3, "", "d")
	assert.NoError(t, err)
}

func TestEngineAcceptAll(t *testing.T) {
	e, _ := newTestEngine(t, "a b c d")

	_, err := e.RegisterSuggestion(KindReplace, 6, 7, "d", "DD")
	require.NoError(t, err)
	_, err = e.RegisterSuggestion(KindReplace, 0, 1, "a", "AA")
	require.NoError(t, err)
	_, err = e.RegisterSuggestion(KindDelete, 2, 4, "b ", "")
	require.NoError(t, err)

	results := e.AcceptAll()
	require.Len(t, results, 3)
	assert.Equal(t, "s2", results[0].Suggestion.ID)
	assert.Equal(t, "AA c DD", e.Text())
	assert.Empty(t, e.Pending())
}

func TestEngineRejectAll(t *testing.T) {
	e, rec := newTestEngine(t, "a b c")
	_, err := e.RegisterSuggestion(KindDelete, 0, 1, "a", "")
	require.NoError(t, err)
	_, err = e.RegisterSuggestion(KindDelete, 4, 5, "c", "")
	require.NoError(t, err)

	assert.Equal(t, 2, e.RejectAll())
	assert.Equal(t, "a b c", e.Text())
	assert.Empty(t, e.Pending())
	assert.Empty(t, rec.edits)
	assert.Equal(t, 0, e.RejectAll())
}

func TestEngineState(t *testing.T) {
	e, _ := newTestEngine(t, "hello")
	_, err := e.RegisterSuggestion(KindAdd, 5, 5, "", "!")
	require.NoError(t, err)
	e.Blur(Selection{Anchor: 2, Head: 2})

	snap := e.State()
	assert.Equal(t, "hello", snap.Text)
	assert.Equal(t, e.Version(), snap.Version)
	assert.Len(t, snap.Pending, 1)
	assert.True(t, snap.BeaconSet)
	assert.Equal(t, ByteOffset(2), snap.Beacon)
	assert.Empty(t, snap.Highlights)
}

func TestEngineExportPatch(t *testing.T) {
	e, _ := newTestEngine(t, "The cat sat.\n", WithDocumentName("story.txt"))
	_, err := e.RegisterSuggestion(KindReplace, 4, 7, "cat", "dog")
	require.NoError(t, err)

	res, err := e.ExportPatch("")
	require.NoError(t, err)
	out := string(res.Diff)
	assert.Contains(t, out, "--- a/story.txt\n")
	assert.Contains(t, out, "-The cat sat.\n+The dog sat.\n")
	assert.Equal(t, "The dog sat.\n", res.Text)

	// Exporting does not touch the document.
	assert.Equal(t, "The cat sat.\n", e.Text())
	assert.Len(t, e.Pending(), 1)

	res, err = e.ExportPatch("other.txt")
	require.NoError(t, err)
	assert.Contains(t, string(res.Diff), "+++ b/other.txt\n")
}

func TestEngineApplyConfig(t *testing.T) {
	text := "0123456789abcdefghijklmnopqrst"
	e, _ := newTestEngine(t, text)

	cfg := config.Default()
	cfg.Engine.Invalidation = "collapse"
	require.NoError(t, e.ApplyConfig(cfg))

	_, err := e.RegisterSuggestion(KindReplace, 10, 20, text[10:20], "X")
	require.NoError(t, err)
	e.CommitEdit(12, 15, "")
	require.Len(t, e.Pending(), 1)
	assert.Equal(t, Range{Start: 10, End: 17}, e.Pending()[0].Range)

	cfg.Engine.Invalidation = "sometimes"
	assert.Error(t, e.ApplyConfig(cfg))
}

func TestEngineFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Invalidation = "collapse"
	cfg.Engine.PatchContext = 0

	e := New("0123456789", FromConfig(cfg))
	_, err := e.RegisterSuggestion(KindDelete, 2, 8, "234567", "")
	require.NoError(t, err)
	e.CommitEdit(4, 5, "")
	assert.Len(t, e.Pending(), 1)
	assert.Equal(t, 0, e.patchContext)
}

func TestEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	e, _ := newTestEngine(t, "The cat sat.", WithMetrics(metrics.NewCollector(reg, "")))

	_, err := e.RegisterSuggestion(KindReplace, 4, 7, "cat", "dog")
	require.NoError(t, err)
	_, err = e.RegisterSuggestion(KindDelete, 8, 11, "sat", "")
	require.NoError(t, err)
	e.CommitEdit(0, 0, "> ")
	e.Accept("s1")

	expected := `
# HELP marginalia_edits_applied_total Document edits applied, by source (host or accept).
# TYPE marginalia_edits_applied_total counter
marginalia_edits_applied_total{source="accept"} 1
marginalia_edits_applied_total{source="host"} 1
# HELP marginalia_suggestions_pending Suggestions currently pending.
# TYPE marginalia_suggestions_pending gauge
marginalia_suggestions_pending 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"marginalia_edits_applied_total", "marginalia_suggestions_pending"))

	n, err := testutil.GatherAndCount(reg, "marginalia_suggestions_registered_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEngineSharedBus(t *testing.T) {
	bus := event.NewBus()
	var topics []string
	_, err := bus.SubscribeFunc("**", func(_ context.Context, ev any) error {
		topics = append(topics, ev.(event.Envelope).EventTopic().String())
		return nil
	})
	require.NoError(t, err)

	e := New("abc", WithBus(bus))
	assert.Same(t, bus, e.Bus())

	e.CommitEdit(3, 3, "d")
	assert.Equal(t, []string{"edit.applied"}, topics)
}

func TestEngineConcurrentRegister(t *testing.T) {
	e := New(strings.Repeat("x", 100))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := e.RegisterSuggestion(KindAdd, ByteOffset(i), ByteOffset(i), "", "y")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, e.Pending(), 50)
}

func TestEngineDebugLogsEvents(t *testing.T) {
	var debug, info bytes.Buffer

	e := New("abc", WithLogger(zerolog.New(&debug).Level(zerolog.DebugLevel)))
	e.CommitEdit(0, 0, "x")
	assert.Contains(t, debug.String(), `"event":"edit.applied"`)
	assert.Contains(t, debug.String(), `"source":"engine"`)

	e = New("abc", WithLogger(zerolog.New(&info).Level(zerolog.InfoLevel)))
	e.CommitEdit(0, 0, "x")
	assert.NotContains(t, info.String(), "event fired")
}
