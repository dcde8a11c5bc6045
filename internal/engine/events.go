package engine

import (
	"github.com/dshills/marginalia/internal/engine/buffer"
	"github.com/dshills/marginalia/internal/engine/highlight"
	"github.com/dshills/marginalia/internal/engine/suggest"
	"github.com/dshills/marginalia/internal/event/topic"
	"github.com/dshills/marginalia/internal/metrics"
)

// Notification topics published on the engine bus.
const (
	TopicSuggestionsChanged topic.Topic = "suggestions.changed"
	TopicSuggestionResolved topic.Topic = "suggestions.resolved"
	TopicBeaconChanged      topic.Topic = "beacon.changed"
	TopicHighlightsChanged  topic.Topic = "highlights.changed"
	TopicEditApplied        topic.Topic = "edit.applied"
)

// EventSource is the Metadata.Source of engine notifications.
const EventSource = "engine"

// SuggestionsChanged carries the full pending set, in render order.
type SuggestionsChanged struct {
	Pending []suggest.Suggestion
}

// SuggestionResolved reports a suggestion leaving the pending state,
// including automatic rejection (ReasonRangeInvalidated).
type SuggestionResolved struct {
	Suggestion suggest.Suggestion
}

// BeaconChanged reports the new beacon. Set is false when it was cleared.
type BeaconChanged struct {
	Position ByteOffset
	Set      bool
}

// HighlightsChanged carries the full highlight set.
type HighlightsChanged struct {
	Ranges []highlight.Highlight
}

// EditSource says who authored an applied edit.
type EditSource string

const (
	// SourceHost is a user edit reported through CommitEdit.
	SourceHost EditSource = metrics.SourceHost

	// SourceAccept is an edit produced by accepting a suggestion. Hosts
	// apply these to their own representation.
	SourceAccept EditSource = metrics.SourceAccept
)

// EditApplied reports an edit applied to the document.
type EditApplied struct {
	Descriptor buffer.EditDescriptor
	Source     EditSource
}
