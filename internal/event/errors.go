package event

import (
	"errors"
	"fmt"

	"github.com/dshills/marginalia/internal/event/topic"
)

// Errors returned by Subscribe, Unsubscribe and Publish.
var (
	ErrInvalidEvent         = errors.New("event has no topic")
	ErrInvalidTopic         = errors.New("invalid topic")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrHandlerPanic         = errors.New("handler panicked")
	ErrNilHandler           = errors.New("nil handler")
)

// DeliveryError reports a failed delivery to one subscription. Either Err
// is the handler's returned error, or Recovered holds the panic value and
// Stack the goroutine stack at recovery.
type DeliveryError struct {
	Subscription string
	Topic        topic.Topic
	Err          error
	Recovered    any
	Stack        []byte
}

// Error names the topic and subscription along with the failure.
func (e *DeliveryError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("deliver %s to %s: panic: %v", e.Topic, e.Subscription, e.Recovered)
	}
	return fmt.Sprintf("deliver %s to %s: %v", e.Topic, e.Subscription, e.Err)
}

// Unwrap returns the handler error; it is nil for a panic.
func (e *DeliveryError) Unwrap() error { return e.Err }

// Is matches ErrHandlerPanic for recovered panics.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrHandlerPanic && e.Recovered != nil
}
