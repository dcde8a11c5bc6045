package replay

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/marginalia/internal/config"
	"github.com/dshills/marginalia/internal/engine"
	"github.com/dshills/marginalia/internal/engine/suggest"
)

// Script is a recorded host session.
type Script struct {
	// Name is used as the document name in exported patches.
	Name     string `yaml:"name"`
	Document string `yaml:"document"`
	Steps    []Step `yaml:"steps"`
}

// Step is one host event. Exactly one field is set.
type Step struct {
	Edit       *EditStep        `yaml:"edit,omitempty"`
	Suggest    *SuggestStep     `yaml:"suggest,omitempty"`
	Accept     string           `yaml:"accept,omitempty"`
	Reject     string           `yaml:"reject,omitempty"`
	AcceptAll  bool             `yaml:"accept_all,omitempty"`
	RejectAll  bool             `yaml:"reject_all,omitempty"`
	Blur       *SelectionStep   `yaml:"blur,omitempty"`
	Focus      bool             `yaml:"focus,omitempty"`
	Select     *SelectionStep   `yaml:"select,omitempty"`
	Highlights *[]HighlightStep `yaml:"highlights,omitempty"`
	Config     *ConfigStep      `yaml:"config,omitempty"`
	Expect     *Expect          `yaml:"expect,omitempty"`
}

// EditStep commits a host edit replacing [from, to) with text.
type EditStep struct {
	From int64  `yaml:"from"`
	To   int64  `yaml:"to"`
	Text string `yaml:"text"`
}

// SuggestStep registers a suggestion. An empty ID lets the engine pick one.
type SuggestStep struct {
	ID       string `yaml:"id"`
	Kind     string `yaml:"kind"`
	From     int64  `yaml:"from"`
	To       int64  `yaml:"to"`
	Original string `yaml:"original"`
	Proposed string `yaml:"proposed"`
}

// SelectionStep is a selection in the host widget. A missing anchor means a
// caret at head.
type SelectionStep struct {
	Anchor *int64 `yaml:"anchor"`
	Head   int64  `yaml:"head"`
}

// Selection converts the step to an engine selection.
func (s SelectionStep) Selection() engine.Selection {
	if s.Anchor == nil {
		return engine.Selection{Anchor: s.Head, Head: s.Head}
	}
	return engine.Selection{Anchor: *s.Anchor, Head: s.Head}
}

// ConfigStep changes engine settings mid-session, the way a config reload
// would. An empty invalidation means overlap; a missing patch_context keeps
// the current one.
type ConfigStep struct {
	Invalidation string `yaml:"invalidation"`
	PatchContext *int   `yaml:"patch_context"`
}

// Config converts the step to the configuration passed to ApplyConfig.
func (c ConfigStep) Config() *config.Config {
	cfg := config.Default()
	cfg.Engine.Invalidation = c.Invalidation
	cfg.Engine.PatchContext = -1
	if c.PatchContext != nil {
		cfg.Engine.PatchContext = *c.PatchContext
	}
	return cfg
}

// HighlightStep is one flagged range.
type HighlightStep struct {
	From int64  `yaml:"from"`
	To   int64  `yaml:"to"`
	Tag  string `yaml:"tag"`
}

// Expect checks engine state. Unset fields are not checked.
type Expect struct {
	Text       *string       `yaml:"text"`
	Pending    *int          `yaml:"pending"`
	Beacon     *BeaconExpect `yaml:"beacon"`
	Highlights *int          `yaml:"highlights"`
	Version    *uint64       `yaml:"version"`
}

// BeaconExpect is an expected beacon: an offset, or "none" for no beacon.
type BeaconExpect struct {
	Set      bool
	Position int64
}

// UnmarshalYAML accepts an integer offset or the string "none".
func (b *BeaconExpect) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: beacon must be an offset or \"none\"", value.Line)
	}
	if strings.EqualFold(value.Value, "none") {
		*b = BeaconExpect{}
		return nil
	}
	pos, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return fmt.Errorf("line %d: beacon must be an offset or \"none\": %w", value.Line, err)
	}
	*b = BeaconExpect{Set: true, Position: pos}
	return nil
}

func (b BeaconExpect) String() string {
	if !b.Set {
		return "none"
	}
	return strconv.FormatInt(b.Position, 10)
}

// Op returns the name of the step's action, or "" if it has none.
func (s Step) Op() string {
	ops := s.ops()
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

func (s Step) ops() []string {
	var ops []string
	add := func(set bool, name string) {
		if set {
			ops = append(ops, name)
		}
	}
	add(s.Edit != nil, "edit")
	add(s.Suggest != nil, "suggest")
	add(s.Accept != "", "accept")
	add(s.Reject != "", "reject")
	add(s.AcceptAll, "accept_all")
	add(s.RejectAll, "reject_all")
	add(s.Blur != nil, "blur")
	add(s.Focus, "focus")
	add(s.Select != nil, "select")
	add(s.Highlights != nil, "highlights")
	add(s.Config != nil, "config")
	add(s.Expect != nil, "expect")
	return ops
}

// Validate checks that every step has exactly one action and that
// suggestion kinds parse.
func (s *Script) Validate() error {
	var errs []error
	for i, step := range s.Steps {
		ops := step.ops()
		switch {
		case len(ops) == 0:
			errs = append(errs, &StepError{Index: i, Op: "?", Err: fmt.Errorf("%w: no action", ErrInvalidStep)})
			continue
		case len(ops) > 1:
			errs = append(errs, &StepError{Index: i, Op: strings.Join(ops, "+"), Err: fmt.Errorf("%w: more than one action", ErrInvalidStep)})
			continue
		}
		if step.Suggest != nil {
			if _, err := suggest.ParseKind(step.Suggest.Kind); err != nil {
				errs = append(errs, &StepError{Index: i, Op: "suggest", Err: err})
			}
		}
		if step.Config != nil {
			if _, err := suggest.ParseInvalidation(step.Config.Invalidation); err != nil {
				errs = append(errs, &StepError{Index: i, Op: "config", Err: fmt.Errorf("%w: %w", ErrInvalidStep, err)})
			}
		}
	}
	return errors.Join(errs...)
}

// Parse decodes and validates a script. Unknown keys are rejected.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses the script at path. A script without a name is
// named after the file.
func LoadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		base := filepath.Base(path)
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return s, nil
}
