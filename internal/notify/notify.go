package notify

import "context"

// Notifier delivers operator alerts. Sends are best-effort; the gateway never
// blocks probe or sync work on a notifier.
type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi fans out to several notifiers, returning the first error.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
