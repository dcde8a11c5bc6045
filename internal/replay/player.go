package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dshills/marginalia/internal/engine"
	"github.com/dshills/marginalia/internal/engine/suggest"
)

// StepFunc observes each step after it ran successfully.
type StepFunc func(index int, step Step, eng *engine.Engine)

// Player replays scripts against an engine.
type Player struct {
	logger zerolog.Logger
	onStep StepFunc
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Player) {
		p.logger = logger
	}
}

// WithStepFunc calls fn after every step.
func WithStepFunc(fn StepFunc) Option {
	return func(p *Player) {
		p.onStep = fn
	}
}

// NewPlayer creates a player.
func NewPlayer(opts ...Option) *Player {
	p := &Player{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run creates an engine holding the script's document and plays the script
// on it. The engine is returned even when a step fails, so callers can
// inspect the state the run stopped in.
func (p *Player) Run(ctx context.Context, s *Script, opts ...engine.Option) (*engine.Engine, error) {
	if s.Name != "" {
		opts = append(opts, engine.WithDocumentName(s.Name))
	}
	eng := engine.New(s.Document, opts...)
	return eng, p.Play(ctx, eng, s)
}

// Play runs every step of s against eng in order. It stops at the first
// failing step or when ctx is done.
func (p *Player) Play(ctx context.Context, eng *engine.Engine, s *Script) error {
	for i, step := range s.Steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		op := step.Op()
		if op == "" {
			return &StepError{Index: i, Op: "?", Err: ErrInvalidStep}
		}
		if err := p.step(eng, step); err != nil {
			return &StepError{Index: i, Op: op, Err: err}
		}

		p.logger.Debug().Int("step", i+1).Str("op", op).Msg("step played")
		if p.onStep != nil {
			p.onStep(i, step, eng)
		}
	}
	return nil
}

// step runs one action. A desync panic is turned into an error. The edit is
// rejected before anything changes, so the engine still holds the state of
// the previous step.
func (p *Player) step(eng *engine.Engine, step Step) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var derr *engine.DesyncError
			if e, ok := r.(error); ok && errors.As(e, &derr) {
				err = derr
				return
			}
			panic(r)
		}
	}()

	switch {
	case step.Edit != nil:
		eng.CommitEdit(step.Edit.From, step.Edit.To, step.Edit.Text)

	case step.Suggest != nil:
		kind, err := suggest.ParseKind(step.Suggest.Kind)
		if err != nil {
			return err
		}
		_, err = eng.Register(engine.Proposal{
			ID:           step.Suggest.ID,
			Kind:         kind,
			Range:        engine.Range{Start: step.Suggest.From, End: step.Suggest.To},
			OriginalText: step.Suggest.Original,
			ProposedText: step.Suggest.Proposed,
		})
		return err

	case step.Accept != "":
		if res := eng.Accept(step.Accept); res.AlreadyResolved {
			p.logger.Info().Str("id", step.Accept).Msg("accept: already resolved")
		}

	case step.Reject != "":
		if !eng.Reject(step.Reject) {
			p.logger.Info().Str("id", step.Reject).Msg("reject: already resolved")
		}

	case step.AcceptAll:
		eng.AcceptAll()

	case step.RejectAll:
		eng.RejectAll()

	case step.Blur != nil:
		eng.Blur(step.Blur.Selection())

	case step.Focus:
		eng.Focus()

	case step.Select != nil:
		eng.SelectionChange(step.Select.Selection())

	case step.Highlights != nil:
		ranges := make([]engine.Highlight, 0, len(*step.Highlights))
		for _, h := range *step.Highlights {
			ranges = append(ranges, engine.Highlight{
				Range: engine.Range{Start: h.From, End: h.To},
				Tag:   h.Tag,
			})
		}
		return eng.SetHighlightRanges(ranges)

	case step.Config != nil:
		return eng.ApplyConfig(step.Config.Config())

	case step.Expect != nil:
		return Check(eng.State(), *step.Expect)
	}
	return nil
}

// Check compares a snapshot against an expectation. Every mismatching field
// is reported.
func Check(snap engine.Snapshot, want Expect) error {
	var errs []error
	mismatch := func(field string, w, g any) {
		errs = append(errs, &ExpectationError{Field: field, Want: w, Got: g})
	}

	if want.Text != nil && *want.Text != snap.Text {
		mismatch("text", fmt.Sprintf("%q", *want.Text), fmt.Sprintf("%q", snap.Text))
	}
	if want.Pending != nil && *want.Pending != len(snap.Pending) {
		mismatch("pending", *want.Pending, len(snap.Pending))
	}
	if want.Beacon != nil {
		got := BeaconExpect{Set: snap.BeaconSet, Position: snap.Beacon}
		if *want.Beacon != got {
			mismatch("beacon", *want.Beacon, got)
		}
	}
	if want.Highlights != nil && *want.Highlights != len(snap.Highlights) {
		mismatch("highlights", *want.Highlights, len(snap.Highlights))
	}
	if want.Version != nil && *want.Version != uint64(snap.Version) {
		mismatch("version", *want.Version, uint64(snap.Version))
	}

	return errors.Join(errs...)
}
