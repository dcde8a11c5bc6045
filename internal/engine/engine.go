package engine

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/marginalia/internal/config"
	"github.com/dshills/marginalia/internal/engine/beacon"
	"github.com/dshills/marginalia/internal/engine/buffer"
	"github.com/dshills/marginalia/internal/engine/highlight"
	"github.com/dshills/marginalia/internal/engine/mapping"
	"github.com/dshills/marginalia/internal/engine/patch"
	"github.com/dshills/marginalia/internal/engine/suggest"
	"github.com/dshills/marginalia/internal/event"
	"github.com/dshills/marginalia/internal/event/topic"
	"github.com/dshills/marginalia/internal/metrics"
)

// Re-export commonly used types for convenience.
type (
	// ByteOffset is a byte position in the document.
	ByteOffset = buffer.ByteOffset

	// Range is a half-open byte range in the document.
	Range = buffer.Range

	// Version is the document version.
	Version = buffer.Version

	// EditDescriptor describes an applied edit.
	EditDescriptor = buffer.EditDescriptor

	// Selection is the host widget's selection.
	Selection = beacon.Selection

	// Suggestion is a proposed edit.
	Suggestion = suggest.Suggestion

	// Proposal is the input to Register.
	Proposal = suggest.Proposal

	// Kind is the shape of a suggestion.
	Kind = suggest.Kind

	// Highlight is a flagged range.
	Highlight = highlight.Highlight
)

// Re-export constants.
const (
	KindAdd     = suggest.KindAdd
	KindDelete  = suggest.KindDelete
	KindReplace = suggest.KindReplace
)

// AcceptResult is the outcome of Accept.
type AcceptResult struct {
	// Suggestion is the accepted suggestion. Zero when AlreadyResolved.
	Suggestion Suggestion

	// Descriptor describes the edit applied to the document.
	Descriptor EditDescriptor

	// AlreadyResolved reports that the id was unknown or no longer pending;
	// nothing changed.
	AlreadyResolved bool
}

// Snapshot is a consistent view of the engine state.
type Snapshot struct {
	Text       string
	Version    Version
	Pending    []Suggestion
	Beacon     ByteOffset
	BeaconSet  bool
	Highlights []Highlight
}

// Engine ties the document, suggestions, beacon and highlights together and
// is the only entry point for hosts. Every applied edit reaches every
// component before the call returns; notifications are published after the
// engine lock is released, so listeners may call back into the engine.
//
// All operations are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	buf        *buffer.Buffer
	registry   *suggest.Registry
	beacon     *beacon.Tracker
	highlights *highlight.Store

	bus     *event.Bus
	metrics *metrics.Collector
	logger  zerolog.Logger

	// Configuration
	invalidation suggest.Invalidation
	lineEnding   buffer.LineEnding
	patchContext int
	name         string
	newID        func() string
	listeners    []Listener
}

// New creates an engine holding text.
func New(text string, opts ...Option) *Engine {
	e := defaults()
	for _, opt := range opts {
		opt(e)
	}

	if e.bus == nil {
		e.bus = event.NewBus(event.WithLogger(e.logger))
		if e.logger.GetLevel() <= zerolog.DebugLevel {
			event.RegisterDebugLogger(e.bus, e.logger.With().Str("component", "event").Logger())
		}
	}

	e.buf = buffer.NewBuffer(text, buffer.WithLineEnding(e.lineEnding))

	regOpts := []suggest.Option{
		suggest.WithInvalidation(e.invalidation),
		suggest.WithLogger(e.logger.With().Str("component", "suggest").Logger()),
	}
	if e.newID != nil {
		regOpts = append(regOpts, suggest.WithIDGenerator(e.newID))
	}
	e.registry = suggest.NewRegistry(e.buf, regOpts...)
	e.beacon = beacon.NewTracker(beacon.WithLogger(e.logger.With().Str("component", "beacon").Logger()))
	e.highlights = highlight.NewStore(highlight.WithLogger(e.logger.With().Str("component", "highlight").Logger()))

	for _, l := range e.listeners {
		if err := subscribeListener(e.bus, l); err != nil {
			e.logger.Error().Err(err).Msg("subscribe listener")
		}
	}

	return e
}

// Bus returns the bus notifications are published on.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// CommitEdit applies a user edit replacing [from, to) with text.
// Offsets outside the document panic with *DesyncError.
func (e *Engine) CommitEdit(from, to ByteOffset, text string) EditDescriptor {
	var out outbox
	desc := func() EditDescriptor {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.applyLocked(buffer.NewEdit(buffer.NewRange(from, to), text), SourceHost, &out)
	}()
	e.publish(out)
	return desc
}

// Blur records that the editor lost focus with sel. A caret outside the
// document is clamped to its bounds before the beacon is armed.
func (e *Engine) Blur(sel Selection) {
	var out outbox
	func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if sel.Empty() {
			sel = beacon.Caret(mapping.ClampOffset(sel.Head, e.buf.Len()))
		}
		if e.beacon.OnBlur(sel) {
			e.postBeaconLocked(&out)
		}
	}()
	e.publish(out)
}

// Focus records that the editor regained focus.
func (e *Engine) Focus() {
	var out outbox
	func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.beacon.OnFocus() {
			e.postBeaconLocked(&out)
		}
	}()
	e.publish(out)
}

// SelectionChange records a selection change in the host widget.
func (e *Engine) SelectionChange(sel Selection) {
	var out outbox
	func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.beacon.OnSelectionChange(sel) {
			e.postBeaconLocked(&out)
		}
	}()
	e.publish(out)
}

// RegisterSuggestion registers a proposal against the current document with
// a generated id.
func (e *Engine) RegisterSuggestion(kind Kind, from, to ByteOffset, original, proposed string) (Suggestion, error) {
	return e.Register(Proposal{
		Kind:         kind,
		Range:        buffer.NewRange(from, to),
		OriginalText: original,
		ProposedText: proposed,
	})
}

// Register registers a proposal. The range is taken as literal offsets into
// the current document.
func (e *Engine) Register(p Proposal) (Suggestion, error) {
	var out outbox
	s, err := func() (Suggestion, error) {
		e.mu.Lock()
		defer e.mu.Unlock()

		s, err := e.registry.Register(p)
		if err != nil {
			return Suggestion{}, err
		}
		e.metrics.Registered(s.Kind.String())
		e.postSuggestionsLocked(&out)
		return s, nil
	}()
	e.publish(out)
	return s, err
}

// SetHighlightRanges replaces the highlight set. Invalid ranges are dropped
// and reported in the returned error; the valid ones are stored and
// published either way.
func (e *Engine) SetHighlightRanges(ranges []Highlight) error {
	var out outbox
	err := func() error {
		e.mu.Lock()
		defer e.mu.Unlock()

		err := e.highlights.SetRanges(e.buf.Len(), ranges)
		post(&out, TopicHighlightsChanged, HighlightsChanged{Ranges: e.highlights.Ranges()})
		return err
	}()
	e.publish(out)
	return err
}

// Accept accepts a pending suggestion and applies its edit to the document.
// The applied edit is echoed as EditApplied with SourceAccept.
func (e *Engine) Accept(id string) AcceptResult {
	var out outbox
	res := func() AcceptResult {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.acceptLocked(id, &out)
	}()
	e.publish(out)
	return res
}

// Reject rejects a pending suggestion. It returns false if the id was
// unknown or already resolved.
func (e *Engine) Reject(id string) bool {
	var out outbox
	ok := func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.rejectLocked(id, &out)
	}()
	e.publish(out)
	return ok
}

// AcceptAll accepts every pending suggestion in document order. Suggestions
// invalidated by an earlier acceptance in the same call are rejected
// automatically and not included in the results.
func (e *Engine) AcceptAll() []AcceptResult {
	var out outbox
	results := func() []AcceptResult {
		e.mu.Lock()
		defer e.mu.Unlock()

		var results []AcceptResult
		for _, s := range e.registry.ListPending() {
			if res := e.acceptLocked(s.ID, &out); !res.AlreadyResolved {
				results = append(results, res)
			}
		}
		return results
	}()
	e.publish(out)
	return results
}

// RejectAll rejects every pending suggestion and returns how many there were.
func (e *Engine) RejectAll() int {
	var out outbox
	n := func() int {
		e.mu.Lock()
		defer e.mu.Unlock()

		n := 0
		for _, s := range e.registry.ListPending() {
			if e.rejectLocked(s.ID, &out) {
				n++
			}
		}
		return n
	}()
	e.publish(out)
	return n
}

// Text returns the document text.
func (e *Engine) Text() string {
	return e.buf.Text()
}

// Version returns the document version.
func (e *Engine) Version() Version {
	return e.buf.Version()
}

// Pending returns the pending suggestions in render order.
func (e *Engine) Pending() []Suggestion {
	return e.registry.ListPending()
}

// Suggestion returns a pending suggestion by id.
func (e *Engine) Suggestion(id string) (Suggestion, bool) {
	return e.registry.Get(id)
}

// Beacon returns the beacon position and whether one is set.
func (e *Engine) Beacon() (ByteOffset, bool) {
	return e.beacon.Position()
}

// Highlights returns the current highlight set.
func (e *Engine) Highlights() []Highlight {
	return e.highlights.Ranges()
}

// State returns a consistent snapshot of the whole engine.
func (e *Engine) State() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.buf.Snapshot()
	pos, set := e.beacon.Position()
	return Snapshot{
		Text:       snap.Text,
		Version:    snap.Version,
		Pending:    e.registry.ListPending(),
		Beacon:     pos,
		BeaconSet:  set,
		Highlights: e.highlights.Ranges(),
	}
}

// ExportPatch renders the pending suggestions as a unified diff against the
// current text. An empty name uses the configured document name.
func (e *Engine) ExportPatch(name string) (patch.Result, error) {
	e.mu.Lock()
	text := e.buf.Text()
	pending := e.registry.ListPending()
	contextLines := e.patchContext
	if name == "" {
		name = e.name
	}
	e.mu.Unlock()

	return patch.Render(name, text, pending, contextLines)
}

// ApplyConfig applies runtime-changeable settings: the invalidation policy
// and the patch context. Line ending normalization is fixed at creation.
func (e *Engine) ApplyConfig(cfg *config.Config) error {
	policy, err := suggest.ParseInvalidation(cfg.Engine.Invalidation)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry.SetPolicy(policy)
	e.invalidation = policy
	if cfg.Engine.PatchContext >= 0 {
		e.patchContext = cfg.Engine.PatchContext
	}

	e.logger.Info().
		Stringer("invalidation", policy).
		Int("patch_context", e.patchContext).
		Msg("engine config applied")
	return nil
}

// applyLocked applies edit and fans the descriptor out to every component
// (must hold lock).
func (e *Engine) applyLocked(edit buffer.Edit, source EditSource, out *outbox) EditDescriptor {
	hadPending := e.registry.Len() > 0

	desc := e.buf.ApplyEdit(edit)
	invalidated := e.registry.OnDocumentEdit(desc)
	beaconChanged := e.beacon.OnDocumentEdit(desc)
	highlightsChanged := e.highlights.OnDocumentEdit(desc)

	e.metrics.EditApplied(string(source))
	post(out, TopicEditApplied, EditApplied{Descriptor: desc, Source: source})

	for _, s := range invalidated {
		e.logger.Debug().
			Str("id", s.ID).
			Stringer("edit", desc).
			Msg("suggestion invalidated by edit")
		e.metrics.Resolved(s.Kind.String(), s.Status.String(), s.Reason.String())
		post(out, TopicSuggestionResolved, SuggestionResolved{Suggestion: s})
	}
	if hadPending {
		e.postSuggestionsLocked(out)
	}
	if beaconChanged {
		e.postBeaconLocked(out)
	}
	if highlightsChanged {
		post(out, TopicHighlightsChanged, HighlightsChanged{Ranges: e.highlights.Ranges()})
	}

	return desc
}

func (e *Engine) acceptLocked(id string, out *outbox) AcceptResult {
	res := e.registry.Accept(id)
	if res.AlreadyResolved {
		e.logger.Debug().Str("id", id).Msg("accept: already resolved")
		return AcceptResult{AlreadyResolved: true}
	}

	s := res.Suggestion
	e.metrics.Resolved(s.Kind.String(), s.Status.String(), s.Reason.String())
	post(out, TopicSuggestionResolved, SuggestionResolved{Suggestion: s})

	desc := e.applyLocked(res.Edit, SourceAccept, out)
	if e.registry.Len() == 0 {
		// Last pending suggestion; applyLocked had nothing to report.
		e.postSuggestionsLocked(out)
	}

	return AcceptResult{Suggestion: s, Descriptor: desc}
}

func (e *Engine) rejectLocked(id string, out *outbox) bool {
	res := e.registry.Reject(id)
	if res.AlreadyResolved {
		e.logger.Debug().Str("id", id).Msg("reject: already resolved")
		return false
	}

	s := res.Suggestion
	e.metrics.Resolved(s.Kind.String(), s.Status.String(), s.Reason.String())
	post(out, TopicSuggestionResolved, SuggestionResolved{Suggestion: s})
	e.postSuggestionsLocked(out)
	return true
}

func (e *Engine) postSuggestionsLocked(out *outbox) {
	pending := e.registry.ListPending()
	e.metrics.SetPending(len(pending))
	post(out, TopicSuggestionsChanged, SuggestionsChanged{Pending: pending})
}

func (e *Engine) postBeaconLocked(out *outbox) {
	pos, set := e.beacon.Position()
	post(out, TopicBeaconChanged, BeaconChanged{Position: pos, Set: set})
}

// outbox collects notifications while the engine lock is held.
type outbox []any

func post[T any](out *outbox, t topic.Topic, payload T) {
	*out = append(*out, event.NewEvent(t, payload, EventSource))
}

// publish delivers collected notifications in order. Must not hold lock.
func (e *Engine) publish(out outbox) {
	ctx := context.Background()
	for _, ev := range out {
		if err := e.bus.Publish(ctx, ev); err != nil {
			e.logger.Warn().Err(err).Msg("notification handler failed")
		}
	}
}
