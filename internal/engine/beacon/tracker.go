package beacon

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/marginalia/internal/engine/buffer"
	"github.com/dshills/marginalia/internal/engine/mapping"
)

// State is the tracker's lifecycle state.
type State uint8

const (
	// StateIdle means no beacon is shown.
	StateIdle State = iota

	// StateArmed means the editor lost focus with a bare caret and the
	// beacon marks where it was.
	StateArmed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	default:
		return "unknown"
	}
}

// Tracker remembers the caret position while the editor is unfocused.
//
// State transitions:
//
//	Idle  --blur(caret)--------------> Armed
//	Armed --focus / blur(selection)--> Idle
//	Armed --selection change---------> Idle (non-empty selections only)
//
// Every method reports whether the observable position changed.
type Tracker struct {
	mu sync.Mutex

	state    State
	position ByteOffset
	logger   zerolog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger for state transitions.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker creates an idle tracker.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnBlur arms the beacon at the caret when sel is empty; a non-empty
// selection leaves nothing to mark and clears it.
func (t *Tracker) OnBlur(sel Selection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !sel.Empty() {
		return t.clear("blur with selection")
	}
	return t.arm(sel.Head)
}

// OnFocus clears the beacon.
func (t *Tracker) OnFocus() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clear("focus")
}

// OnSelectionChange clears an armed beacon when a non-empty selection
// appears. A bare caret move leaves the beacon alone.
func (t *Tracker) OnSelectionChange(sel Selection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if sel.Empty() {
		return false
	}
	return t.clear("selection")
}

// OnDocumentEdit re-maps an armed beacon through an applied edit. Text
// typed exactly at the beacon pushes it forward.
func (t *Tracker) OnDocumentEdit(desc buffer.EditDescriptor) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateArmed {
		return false
	}

	pos := mapping.MapPosition(t.position, desc.Edit, mapping.BiasRight)
	pos = mapping.ClampOffset(pos, desc.NewLen)
	if pos == t.position {
		return false
	}

	t.position = pos
	return true
}

// Position returns the beacon offset and whether one is set.
func (t *Tracker) Position() (ByteOffset, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position, t.state == StateArmed
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) arm(pos ByteOffset) bool {
	if t.state == StateArmed && t.position == pos {
		return false
	}
	t.state = StateArmed
	t.position = pos
	t.logger.Debug().Int64("position", pos).Msg("beacon armed")
	return true
}

func (t *Tracker) clear(cause string) bool {
	if t.state == StateIdle {
		return false
	}
	t.state = StateIdle
	t.position = 0
	t.logger.Debug().Str("cause", cause).Msg("beacon cleared")
	return true
}
