package event

import (
	"sync/atomic"

	"github.com/dshills/marginalia/internal/event/topic"
)

// Subscription is a registered handler for a topic pattern.
type Subscription struct {
	id       string
	pattern  topic.Topic
	handler  Handler
	priority Priority
	once     bool
	filter   func(event any) bool
	seq      uint64

	active atomic.Bool
}

// Priority orders handlers for one event; lower runs first and equal
// priorities run in subscription order.
type Priority int

const (
	// PriorityHost runs host bridges ahead of ad hoc subscribers.
	PriorityHost Priority = 100
	// PriorityDefault applies when WithPriority is not given.
	PriorityDefault Priority = 200
)

// SubscriptionOption configures a subscription.
type SubscriptionOption func(*Subscription)

// WithPriority sets the handler priority. Lower values run first.
func WithPriority(p Priority) SubscriptionOption {
	return func(s *Subscription) {
		s.priority = p
	}
}

// WithOnce removes the subscription after its first successful delivery.
func WithOnce() SubscriptionOption {
	return func(s *Subscription) {
		s.once = true
	}
}

// WithFilter skips events for which fn returns false.
func WithFilter(fn func(event any) bool) SubscriptionOption {
	return func(s *Subscription) {
		s.filter = fn
	}
}

// ID returns the subscription id.
func (s *Subscription) ID() string {
	return s.id
}

// Pattern returns the topic pattern.
func (s *Subscription) Pattern() topic.Topic {
	return s.pattern
}

// Priority returns the handler priority.
func (s *Subscription) Priority() Priority {
	return s.priority
}

// IsActive returns false once the subscription has been removed.
func (s *Subscription) IsActive() bool {
	return s.active.Load()
}

func (s *Subscription) shouldDeliver(t topic.Topic, event any) bool {
	if !s.active.Load() || !t.Matches(s.pattern) {
		return false
	}
	return s.filter == nil || s.filter(event)
}
