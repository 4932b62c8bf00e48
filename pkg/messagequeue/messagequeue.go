package messagequeue

import (
	"context"
	"errors"
)

// ErrRetry matches handler errors wrapped with Retry.
var ErrRetry = errors.New("temporary failure")

// Retry marks err as temporary. Consumers requeue the message instead of rejecting it.
func Retry(err error) error {
	if err == nil {
		return nil
	}
	return &retryError{err: err}
}

type retryError struct {
	err error
}

func (e *retryError) Error() string { return e.err.Error() }

func (e *retryError) Unwrap() []error { return []error{e.err, ErrRetry} }

// Publisher sends messages to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
	Close() error
}

// Handler processes one delivery. Errors wrapped with Retry requeue the message after a delay;
// any other error rejects it for good.
type Handler func(ctx context.Context, routingKey string, body []byte) error

// Consumer receives messages bound to a queue.
type Consumer interface {
	// Consume blocks, dispatching deliveries to handler until ctx is cancelled or the channel closes.
	Consume(ctx context.Context, handler Handler) error
	Close() error
}
