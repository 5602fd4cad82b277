package provision

import (
	"context"
	"time"

	"github.com/hmcts/vh-user-api-duplicate/internal/logger"
	"github.com/hmcts/vh-user-api-duplicate/internal/metrics"
	"github.com/hmcts/vh-user-api-duplicate/pkg/graph"
)

// Directory writes replicate asynchronously, so a follow-up call can see
// a 404 for an account that was just created. The reconciler retries such
// calls until the directory converges or the window closes.

const (
	// DefaultReconcileTimeout bounds how long a reconciled operation keeps
	// retrying not-found responses.
	DefaultReconcileTimeout = 30 * time.Second

	// DefaultReconcileBackoff is the pause between retries. A zero backoff
	// retries as fast as the directory answers.
	DefaultReconcileBackoff = time.Second
)

// Reconciler retries an operation while the directory answers not-found,
// up to a deadline.
type Reconciler struct {
	Timeout time.Duration
	Backoff time.Duration

	// now and sleep are swappable in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewReconciler creates a reconciler with the given retry window and pause
// between attempts.
func NewReconciler(timeout, backoff time.Duration) *Reconciler {
	return &Reconciler{
		Timeout: timeout,
		Backoff: backoff,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Await runs op until it stops returning not-found, the retry window closes,
// or the context is cancelled. op is the operation name for logs and errors;
// target identifies the account acted on.
func (r *Reconciler) Await(ctx context.Context, op, target string, fn func(ctx context.Context) error) error {
	deadline := r.now().Add(r.Timeout)

	for attempt := 1; ; attempt++ {
		metrics.ReconcileAttempt()

		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Debug("directory converged",
					logger.KeyOperation, op,
					logger.KeyAttempt, attempt)
			}
			metrics.ReconcileOutcome("success")
			return nil
		}
		if !graph.IsNotFound(err) {
			metrics.ReconcileOutcome("error")
			return opError(op, target, err)
		}

		if !r.now().Before(deadline) {
			metrics.ReconcileOutcome("timeout")
			return timeoutError(op, target, err)
		}

		logger.Debug("directory not yet consistent, retrying",
			logger.KeyOperation, op,
			logger.KeyAttempt, attempt)

		if r.Backoff > 0 {
			if err := r.sleep(ctx, r.Backoff); err != nil {
				metrics.ReconcileOutcome("error")
				return opError(op, target, err)
			}
		} else if err := ctx.Err(); err != nil {
			metrics.ReconcileOutcome("error")
			return opError(op, target, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
