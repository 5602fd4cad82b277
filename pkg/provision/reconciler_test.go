package provision

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hmcts/vh-user-api-duplicate/internal/metrics"
	"github.com/hmcts/vh-user-api-duplicate/pkg/graph"
)

// testClock drives a reconciler without real sleeping: every sleep advances
// the fake clock by the requested duration.
type testClock struct {
	now time.Time
}

func newTestReconciler(timeout, backoff time.Duration) (*Reconciler, *testClock) {
	clock := &testClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	rec := NewReconciler(timeout, backoff)
	rec.now = func() time.Time { return clock.now }
	rec.sleep = func(ctx context.Context, d time.Duration) error {
		clock.now = clock.now.Add(d)
		return ctx.Err()
	}
	return rec, clock
}

func TestReconcilerConverges(t *testing.T) {
	rec, _ := newTestReconciler(30*time.Second, time.Second)

	attempts := 0
	err := rec.Await(context.Background(), "reset_password", "jane.doe", func(ctx context.Context) error {
		attempts++
		if attempts < 4 {
			return &graph.APIError{Operation: "update_user", StatusCode: 404}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, attempts)
}

func TestReconcilerRecordsSuccessOutcome(t *testing.T) {
	metrics.InitRegistry()
	rec, _ := newTestReconciler(30*time.Second, time.Second)

	attempts := 0
	err := rec.Await(context.Background(), "reset_password", "jane.doe", func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return &graph.APIError{Operation: "update_user", StatusCode: 404}
		}
		return nil
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, req)

	body, err := io.ReadAll(w.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `userapi_reconcile_outcomes_total{outcome="success"}`)
}

func TestReconcilerTimesOut(t *testing.T) {
	rec, _ := newTestReconciler(5*time.Second, time.Second)

	attempts := 0
	err := rec.Await(context.Background(), "reset_password", "jane.doe", func(ctx context.Context) error {
		attempts++
		return &graph.APIError{Operation: "update_user", StatusCode: 404}
	})

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	// One initial attempt plus one per second of window.
	assert.Equal(t, 6, attempts)

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "reset_password", pe.Op)
	assert.Equal(t, "jane.doe", pe.Target)
	assert.True(t, graph.IsNotFound(pe.Err))
}

func TestReconcilerStopsOnHardError(t *testing.T) {
	rec, _ := newTestReconciler(30*time.Second, time.Second)

	boom := errors.New("directory unavailable")
	attempts := 0
	err := rec.Await(context.Background(), "reset_password", "jane.doe", func(ctx context.Context) error {
		attempts++
		return boom
	})

	require.Error(t, err)
	assert.False(t, IsTimeout(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestReconcilerHonoursContext(t *testing.T) {
	rec, _ := newTestReconciler(30*time.Second, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := rec.Await(ctx, "reset_password", "jane.doe", func(ctx context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return &graph.APIError{Operation: "update_user", StatusCode: 404}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReconcilerZeroBackoffRetriesImmediately(t *testing.T) {
	rec, clock := newTestReconciler(30*time.Second, 0)
	started := clock.now

	attempts := 0
	err := rec.Await(context.Background(), "reset_password", "jane.doe", func(ctx context.Context) error {
		attempts++
		if attempts < 10 {
			return &graph.APIError{Operation: "update_user", StatusCode: 404}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 10, attempts)
	assert.Equal(t, started, clock.now)
}
