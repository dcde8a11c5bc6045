package suggest

import (
	"fmt"
	"slices"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/marginalia/internal/engine/buffer"
	"github.com/dshills/marginalia/internal/engine/mapping"
)

// Document is the read side of the buffer the registry anchors to.
type Document interface {
	Version() buffer.Version
	Len() buffer.ByteOffset
}

// Registry owns the pending suggestions, keyed by id.
// Resolved suggestions are dropped from tracking immediately.
// All methods are safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	doc      Document
	pending  map[string]*Suggestion
	resolved *recentIDs
	seq      uint64

	policy Invalidation
	newID  func() string
	logger zerolog.Logger
}

// NewRegistry creates an empty registry anchored to doc.
func NewRegistry(doc Document, opts ...Option) *Registry {
	r := &Registry{
		doc:      doc,
		pending:  make(map[string]*Suggestion),
		resolved: newRecentIDs(resolvedHistory),
		newID:    uuid.NewString,
		logger:   zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Policy returns the active invalidation policy.
func (r *Registry) Policy() Invalidation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.policy
}

// SetPolicy changes the invalidation policy for subsequent edits.
func (r *Registry) SetPolicy(policy Invalidation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policy = policy
}

// Register adds a pending suggestion anchored at the current document version.
// The range is a literal offset pair against the current document.
func (r *Registry) Register(p Proposal) (Suggestion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !p.Kind.IsValid() {
		return Suggestion{}, fmt.Errorf("register %q: %w: %d", p.ID, ErrInvalidKind, p.Kind)
	}

	length := r.doc.Len()
	if !p.Range.Within(length) {
		return Suggestion{}, fmt.Errorf("register %q: %w", p.ID, &RangeError{Range: p.Range, Len: length})
	}

	id := p.ID
	if id == "" {
		id = r.newID()
	}
	if _, exists := r.pending[id]; exists {
		return Suggestion{}, fmt.Errorf("register %q: %w", id, ErrDuplicateID)
	}

	r.seq++
	s := &Suggestion{
		ID:           id,
		Kind:         p.Kind,
		Range:        p.Range,
		OriginalText: p.OriginalText,
		ProposedText: p.ProposedText,
		Status:       StatusPending,
		BaseVersion:  r.doc.Version(),
		seq:          r.seq,
	}
	r.pending[id] = s
	r.resolved.remove(id)

	r.logger.Debug().
		Str("id", id).
		Stringer("kind", s.Kind).
		Stringer("range", s.Range).
		Uint64("base_version", uint64(s.BaseVersion)).
		Msg("suggestion registered")

	return *s, nil
}

// OnDocumentEdit re-maps every pending suggestion through an applied edit.
// Delete and Replace suggestions whose target text the edit destroyed are
// rejected with ReasonRangeInvalidated and returned, ordered like ListPending.
func (r *Registry) OnDocumentEdit(desc buffer.EditDescriptor) []Suggestion {
	r.mu.Lock()
	defer r.mu.Unlock()

	var invalidated []Suggestion
	for id, s := range r.pending {
		before := s.Range
		after := mapping.ClampRange(mapping.MapRange(before, desc.Edit), desc.NewLen)

		if s.Kind != KindAdd && r.invalidates(before, after, desc.Edit) {
			s.Range = after
			s.Status = StatusRejected
			s.Reason = ReasonRangeInvalidated
			delete(r.pending, id)
			r.resolved.add(id)
			invalidated = append(invalidated, *s)

			r.logger.Debug().
				Str("id", id).
				Stringer("range", before).
				Stringer("edit", desc.Edit).
				Msg("suggestion invalidated")
			continue
		}

		s.Range = after
	}

	sortSuggestions(invalidated)
	return invalidated
}

func (r *Registry) invalidates(before, after buffer.Range, edit buffer.Edit) bool {
	collapsed := !before.IsEmpty() && after.IsEmpty()
	if r.policy == InvalidateOnCollapse {
		return collapsed
	}
	return collapsed || mapping.EditsInside(before, edit)
}

// Accept resolves a pending suggestion as accepted and returns the edit the
// caller must apply. The registry does not touch the document; the caller
// applies the edit and feeds the descriptor back through OnDocumentEdit.
// Unknown or already resolved ids yield AlreadyResolved and no edit.
func (r *Registry) Accept(id string) Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.take(id)
	if !ok {
		return Resolution{AlreadyResolved: true}
	}

	s.Status = StatusAccepted
	s.Reason = ReasonUserAccepted

	r.logger.Debug().Str("id", id).Stringer("range", s.Range).Msg("suggestion accepted")

	return Resolution{Suggestion: s, Edit: s.Edit()}
}

// Reject resolves a pending suggestion as rejected. The document is not changed.
// Unknown or already resolved ids yield AlreadyResolved.
func (r *Registry) Reject(id string) Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.take(id)
	if !ok {
		return Resolution{AlreadyResolved: true}
	}

	s.Status = StatusRejected
	s.Reason = ReasonUserRejected

	r.logger.Debug().Str("id", id).Msg("suggestion rejected")

	return Resolution{Suggestion: s}
}

// take removes a pending suggestion and marks its id resolved (must hold lock).
func (r *Registry) take(id string) (Suggestion, bool) {
	s, ok := r.pending[id]
	if !ok {
		r.logger.Debug().
			Str("id", id).
			Bool("known", r.resolved.contains(id)).
			Msg("duplicate resolution")
		return Suggestion{}, false
	}

	delete(r.pending, id)
	r.resolved.add(id)
	return *s, true
}

// Get returns a pending suggestion by id.
func (r *Registry) Get(id string) (Suggestion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.pending[id]
	if !ok {
		return Suggestion{}, false
	}
	return *s, true
}

// ListPending returns a snapshot of the pending suggestions ordered by
// Range.Start, ties broken by registration order.
func (r *Registry) ListPending() []Suggestion {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Suggestion, 0, len(r.pending))
	for _, s := range r.pending {
		result = append(result, *s)
	}
	sortSuggestions(result)
	return result
}

// Len returns the number of pending suggestions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pending)
}

// Reset drops every pending suggestion and the resolved-id history.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = make(map[string]*Suggestion)
	r.resolved.clear()
}

// resolvedHistory bounds how many resolved ids are kept for logging
// duplicate resolutions.
const resolvedHistory = 1024

// recentIDs is a bounded set of the most recently resolved ids; the oldest
// is evicted once it is full. It only feeds log context.
type recentIDs struct {
	set  mapset.Set[string]
	ring []string
	next int
}

func newRecentIDs(n int) *recentIDs {
	return &recentIDs{set: mapset.NewThreadUnsafeSet[string](), ring: make([]string, 0, n)}
}

func (r *recentIDs) add(id string) {
	if r.set.Contains(id) {
		return
	}
	if len(r.ring) < cap(r.ring) {
		r.ring = append(r.ring, id)
	} else {
		r.set.Remove(r.ring[r.next])
		r.ring[r.next] = id
		r.next = (r.next + 1) % len(r.ring)
	}
	r.set.Add(id)
}

func (r *recentIDs) remove(id string)        { r.set.Remove(id) }
func (r *recentIDs) contains(id string) bool { return r.set.Contains(id) }
func (r *recentIDs) len() int                { return r.set.Cardinality() }

func (r *recentIDs) clear() {
	r.set.Clear()
	r.ring = r.ring[:0]
	r.next = 0
}

func sortSuggestions(s []Suggestion) {
	slices.SortFunc(s, func(a, b Suggestion) int {
		if a.Range.Start != b.Range.Start {
			if a.Range.Start < b.Range.Start {
				return -1
			}
			return 1
		}
		if a.seq < b.seq {
			return -1
		}
		if a.seq > b.seq {
			return 1
		}
		return 0
	})
}
