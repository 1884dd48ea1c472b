package snowapi

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjain20/gosnowapi/snowapi/snowapitest"
)

func runPending(t *testing.T, c *Client, srv *snowapitest.Server) *Pending {
	t.Helper()
	srv.QueueSubmit(snowapitest.Running("h1"))
	out, err := c.SQL("CALL SLOW();").Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Pending)
	return out.Pending
}

func TestWaitUntilComplete(t *testing.T) {
	c, srv := newTestClient(t)
	p := runPending(t, c, srv)
	srv.QueueStatus("h1",
		snowapitest.Running("h1"),
		snowapitest.JSON(http.StatusTooManyRequests, map[string]string{"message": "slow down"}),
		snowapitest.JSON(http.StatusOK, snowapitest.Result("h1", []string{"A"}, [][]*string{snowapitest.Row("done")})))

	resp, err := p.Wait(context.Background(), &backoff.ZeroBackOff{}, 0)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "done", *resp.Data[0][0])
	assert.Len(t, srv.Requests(), 4)
}

func TestWaitStopsOnFailure(t *testing.T) {
	c, srv := newTestClient(t)
	p := runPending(t, c, srv)
	srv.QueueStatus("h1", snowapitest.Failed("h1", "000604", "SQL execution canceled"))

	_, err := p.Wait(context.Background(), &backoff.ZeroBackOff{}, 0)
	var qf *QueryFailureStatus
	require.ErrorAs(t, err, &qf)
	assert.Equal(t, "000604", qf.Code)
	assert.Len(t, srv.Requests(), 2)
}

func TestWaitMaxElapsed(t *testing.T) {
	c, srv := newTestClient(t)
	p := runPending(t, c, srv)
	srv.QueueStatus("h1", snowapitest.Running("h1"))

	_, err := p.Wait(context.Background(), backoff.NewConstantBackOff(5*time.Millisecond), 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrStillRunning)
}

func TestWaitContextDeadline(t *testing.T) {
	c, srv := newTestClient(t)
	p := runPending(t, c, srv)
	srv.QueueStatus("h1", snowapitest.Running("h1"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := p.Wait(ctx, backoff.NewConstantBackOff(10*time.Millisecond), 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryHint(t *testing.T) {
	err := retryHint(&RateLimitedError{StatusCode: http.StatusTooManyRequests, Handle: "h1", RetryAfter: 1500 * time.Millisecond})
	var ra *backoff.RetryAfterError
	require.ErrorAs(t, err, &ra)
	assert.Equal(t, 2*time.Second, ra.Duration)

	plain := &RateLimitedError{StatusCode: http.StatusServiceUnavailable, Handle: "h1"}
	assert.Same(t, plain, retryHint(plain))
}

func TestDrain(t *testing.T) {
	c, srv := newTestClient(t)
	batch := submitBatch(t, c, srv, "H1", "H2", "H3")
	srv.QueueStatus("H1", snowapitest.Running("H1"), snowapitest.JSON(http.StatusOK, snowapitest.Result("H1", []string{"A"}, nil)))
	srv.QueueStatus("H2",
		snowapitest.JSON(http.StatusServiceUnavailable, map[string]string{"message": "busy"}),
		snowapitest.JSON(http.StatusOK, snowapitest.Result("H2", []string{"A"}, nil)))
	srv.QueueStatus("H3", snowapitest.Failed("H3", "002003", "missing"))

	var visited []StatementHandle
	var failures int
	err := batch.Drain(context.Background(), &backoff.ZeroBackOff{}, 0, func(e DrainEntry) error {
		visited = append(visited, e.Handle)
		if e.Err != nil {
			failures++
		}
		return nil
	})
	require.NoError(t, err)
	assert.True(t, batch.AreAllComplete())
	assert.Equal(t, []StatementHandle{"H3", "H1", "H2"}, visited)
	assert.Equal(t, 1, failures)
}

func TestDrainMaxElapsed(t *testing.T) {
	c, srv := newTestClient(t)
	batch := submitBatch(t, c, srv, "H1", "H2")
	srv.QueueStatus("H1", snowapitest.JSON(http.StatusOK, snowapitest.Result("H1", []string{"A"}, nil)))
	srv.QueueStatus("H2", snowapitest.Running("H2"))

	err := batch.Drain(context.Background(), backoff.NewConstantBackOff(5*time.Millisecond), 30*time.Millisecond,
		func(DrainEntry) error { return nil })
	assert.ErrorIs(t, err, ErrStillPending)
	assert.Equal(t, []StatementHandle{"H2"}, batch.UnfinishedStatements())
}

func TestDrainVisitErrorStops(t *testing.T) {
	c, srv := newTestClient(t)
	batch := submitBatch(t, c, srv, "H1", "H2")
	srv.QueueStatus("H1", snowapitest.Failed("H1", "002003", "missing"))
	srv.QueueStatus("H2", snowapitest.Running("H2"))

	stop := errors.New("stop")
	err := batch.Drain(context.Background(), &backoff.ZeroBackOff{}, 0, func(e DrainEntry) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, []StatementHandle{"H2"}, batch.UnfinishedStatements())
}
