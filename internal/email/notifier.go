package email

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const notifyTimeout = 45 * time.Second

// Notifier sends account lifecycle emails.
type Notifier interface {
	NotifyWelcome(ctx context.Context, to, name string) error
	NotifyCancellation(ctx context.Context, to, name string) error
}

// LogNotifier only logs. It is used when no SMTP host is configured.
type LogNotifier struct{}

func (LogNotifier) NotifyWelcome(_ context.Context, to, name string) error {
	slog.Info("welcome email suppressed, smtp not configured", "component", "email", "to", to, "name", name)
	return nil
}

func (LogNotifier) NotifyCancellation(_ context.Context, to, name string) error {
	slog.Info("cancellation email suppressed, smtp not configured", "component", "email", "to", to, "name", name)
	return nil
}

// Outcome is reported once per send.
type Outcome func(kind string, err error)

// AsyncNotifier sends in the background so callers never wait on, or fail
// because of, the mail server. Errors are logged and dropped.
type AsyncNotifier struct {
	next    Notifier
	outcome Outcome
	wg      sync.WaitGroup
}

func NewAsyncNotifier(next Notifier, outcome Outcome) *AsyncNotifier {
	return &AsyncNotifier{next: next, outcome: outcome}
}

func (n *AsyncNotifier) NotifyWelcome(_ context.Context, to, name string) error {
	n.dispatch("welcome", to, func(ctx context.Context) error {
		return n.next.NotifyWelcome(ctx, to, name)
	})
	return nil
}

func (n *AsyncNotifier) NotifyCancellation(_ context.Context, to, name string) error {
	n.dispatch("cancellation", to, func(ctx context.Context) error {
		return n.next.NotifyCancellation(ctx, to, name)
	})
	return nil
}

// Wait blocks until in-flight sends finish or ctx is done.
func (n *AsyncNotifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *AsyncNotifier) dispatch(kind, to string, send func(ctx context.Context) error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		// Detached from the request: the response may already be written.
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		err := send(ctx)
		if err != nil {
			slog.Error("error sending email", "component", "email", "kind", kind, "to", to, "error", err)
		}
		if n.outcome != nil {
			n.outcome(kind, err)
		}
	}()
}
