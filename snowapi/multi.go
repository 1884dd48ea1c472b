package snowapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vjain20/gosnowapi/snowapi/decode"
)

// BatchBuilder collects the statements of a multi-statement submission.
// Every statement must end with a semicolon.
type BatchBuilder struct {
	client     *Client
	statements []string
	additional int
	req        StatementRequest
	err        error
}

// MultipleStatements starts a batch using the client's default database,
// schema, warehouse and role.
func (c *Client) MultipleStatements() *BatchBuilder {
	return &BatchBuilder{
		client: c,
		req: StatementRequest{
			Database:  c.config.Database,
			Schema:    c.config.Schema,
			Warehouse: c.config.Warehouse,
			Role:      c.config.Role,
		},
	}
}

// Add appends a single statement.
func (b *BatchBuilder) Add(sql string) *BatchBuilder {
	b.statements = append(b.statements, sql)
	return b
}

// AddMultiple appends a text holding count statements.
func (b *BatchBuilder) AddMultiple(count int, sql string) *BatchBuilder {
	if count < 1 {
		b.err = fmt.Errorf("%w: statement count %d for %q", ErrInvalidBatch, count, sql)
		return b
	}
	b.additional += count - 1
	b.statements = append(b.statements, sql)
	return b
}

func (b *BatchBuilder) WithTimeout(seconds uint32) *BatchBuilder {
	b.req.Timeout = &seconds
	return b
}

func (b *BatchBuilder) WithRole(role string) *BatchBuilder {
	b.req.Role = role
	return b
}

func (b *BatchBuilder) WithWarehouse(warehouse string) *BatchBuilder {
	b.req.Warehouse = warehouse
	return b
}

func (b *BatchBuilder) WithDatabase(database string) *BatchBuilder {
	b.req.Database = database
	return b
}

func (b *BatchBuilder) WithSchema(schema string) *BatchBuilder {
	b.req.Schema = schema
	return b
}

// Count is the number of logical statements, sent as MULTI_STATEMENT_COUNT.
func (b *BatchBuilder) Count() int { return len(b.statements) + b.additional }

// Statement is every added text joined by single spaces.
func (b *BatchBuilder) Statement() string { return strings.Join(b.statements, " ") }

// Request returns the body that Submit would send.
func (b *BatchBuilder) Request() (StatementRequest, error) {
	if b.err != nil {
		return StatementRequest{}, b.err
	}
	if len(b.statements) == 0 {
		return StatementRequest{}, fmt.Errorf("%w: no statements", ErrInvalidBatch)
	}
	req := b.req
	req.Statement = b.Statement()
	req.Parameters = &Parameters{MultiStatementCount: b.Count()}
	return req, nil
}

func (b *BatchBuilder) submit(ctx context.Context, op string) (*rawResponse, error) {
	req, err := b.Request()
	if err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	query := url.Values{}
	query.Set("nullable", "false")
	query.Set("requestId", requestID)
	return b.client.send(ctx, op, http.MethodPost, statementsPath, query, req,
		attribute.String("snowapi.request_id", requestID),
		attribute.Int("snowapi.statement_count", b.Count()))
}

// Text submits the batch and returns the raw response body.
func (b *BatchBuilder) Text(ctx context.Context) (string, error) {
	raw, err := b.submit(ctx, "batch_text")
	if err != nil {
		return "", err
	}
	return string(raw.Body), nil
}

// Submit sends the batch and returns the handle set to drain.
func (b *BatchBuilder) Submit(ctx context.Context) (*Batch, error) {
	raw, err := b.submit(ctx, "batch")
	if err != nil {
		return nil, err
	}
	switch raw.StatusCode {
	case http.StatusOK, http.StatusAccepted, http.StatusRequestTimeout:
	case http.StatusUnprocessableEntity:
		return nil, failure("batch", raw)
	default:
		return nil, &UnknownStatusError{Op: "batch", StatusCode: raw.StatusCode, Body: raw.Body}
	}

	var resp multiStatementResponse
	if err := decodeBody("batch", raw, &resp); err != nil {
		return nil, err
	}
	handles := resp.StatementHandles
	if len(handles) == 0 && resp.StatementHandle != "" {
		handles = []StatementHandle{resp.StatementHandle}
	}
	if len(handles) != b.Count() {
		b.client.logger.WarnContext(ctx, "statement handle count mismatch",
			"expected", b.Count(), "got", len(handles))
	}
	return &Batch{
		client:    b.client,
		statement: b.Statement(),
		handles:   handles,
		pending:   slices.Clone(handles),
	}, nil
}

// Batch tracks the statements of a submitted multi-statement request. It must
// not be drained from several goroutines at once.
type Batch struct {
	client    *Client
	statement string
	handles   []StatementHandle
	pending   []StatementHandle
}

// ConcatenatedStatement is the text that was submitted. Failure positions
// reported by the service refer to it.
func (b *Batch) ConcatenatedStatement() string { return b.statement }

// Handles returns every statement handle in submission order.
func (b *Batch) Handles() []StatementHandle { return slices.Clone(b.handles) }

// UnfinishedStatements returns the handles still pending, in submission order.
func (b *Batch) UnfinishedStatements() []StatementHandle { return slices.Clone(b.pending) }

func (b *Batch) AreAllComplete() bool { return len(b.pending) == 0 }

// StatementStatus is the classified state of one batch statement. Exactly one
// of Result and Running is set.
type StatementStatus struct {
	Handle  StatementHandle
	Result  *CompletedStatement
	Running *QueryStatus
}

// Done reports whether the statement succeeded.
func (s *StatementStatus) Done() bool { return s.Result != nil }

// StatementStatus polls one handle. Rate-limited replies return a
// *RateLimitedError; 422 returns a *QueryFailureStatus.
func (b *Batch) StatementStatus(ctx context.Context, handle StatementHandle) (*StatementStatus, error) {
	raw, err := b.client.getStatus(ctx, handle)
	if err != nil {
		return nil, err
	}
	switch {
	case raw.StatusCode == http.StatusOK:
		return &StatementStatus{
			Handle: handle,
			Result: &CompletedStatement{client: b.client, handle: handle, raw: raw},
		}, nil
	case raw.StatusCode == http.StatusAccepted || raw.StatusCode == http.StatusRequestTimeout:
		var status QueryStatus
		if err := decodeBody("status", raw, &status); err != nil {
			return nil, err
		}
		return &StatementStatus{Handle: handle, Running: &status}, nil
	case raw.StatusCode == http.StatusUnprocessableEntity:
		return nil, failure("status", raw)
	case isRateLimited(raw.StatusCode):
		return nil, &RateLimitedError{StatusCode: raw.StatusCode, Handle: handle, RetryAfter: retryAfter(raw.Header)}
	default:
		return nil, &UnknownStatusError{Op: "status", StatusCode: raw.StatusCode, Body: raw.Body}
	}
}

// Complete polls every pending handle once, in order. Succeeded and
// terminally failed statements leave the pending set; running and
// rate-limited ones stay. A transport failure stops the round: the entries
// gathered so far are returned with the error and the unpolled handles stay
// pending.
func (b *Batch) Complete(ctx context.Context) (DrainRound, error) {
	round := make(DrainRound, 0, len(b.pending))
	remaining := make([]StatementHandle, 0, len(b.pending))
	for i, handle := range b.pending {
		status, err := b.StatementStatus(ctx, handle)
		var te *TransportError
		if errors.As(err, &te) {
			b.pending = append(remaining, b.pending[i:]...)
			return round, err
		}
		entry := DrainEntry{Handle: handle, Status: status, Err: err}
		if !entry.finished() {
			remaining = append(remaining, handle)
		}
		round = append(round, entry)
	}
	b.pending = remaining
	b.client.logger.DebugContext(ctx, "batch drain round", "polled", len(round), "pending", len(remaining))
	return round, nil
}

// DrainEntry is the outcome of polling one handle during Complete.
type DrainEntry struct {
	Handle StatementHandle
	Status *StatementStatus
	Err    error
}

func (e DrainEntry) finished() bool {
	if e.Err != nil {
		return !IsRetryable(e.Err)
	}
	return e.Status.Done()
}

// DrainRound holds one Complete call's entries in polling order.
type DrainRound []DrainEntry

// Completed returns the entries whose handle left the pending set: results
// and terminal errors.
func (r DrainRound) Completed() []DrainEntry {
	var out []DrainEntry
	for _, e := range r {
		if e.finished() {
			out = append(out, e)
		}
	}
	return out
}

// Retryable returns the rate-limited entries of this round.
func (r DrainRound) Retryable() []DrainEntry {
	var out []DrainEntry
	for _, e := range r {
		if e.Err != nil && IsRetryable(e.Err) {
			out = append(out, e)
		}
	}
	return out
}

// Running returns the entries the service is still executing.
func (r DrainRound) Running() []DrainEntry {
	var out []DrainEntry
	for _, e := range r {
		if e.Err == nil && !e.Status.Done() {
			out = append(out, e)
		}
	}
	return out
}

// CompletedStatement is a succeeded batch statement. Its body is parsed on
// demand.
type CompletedStatement struct {
	client *Client
	handle StatementHandle
	raw    *rawResponse
}

func (s *CompletedStatement) Handle() StatementHandle { return s.handle }

// Body returns the raw result body.
func (s *CompletedStatement) Body() []byte { return s.raw.Body }

// Response parses the result and merges any further partitions.
func (s *CompletedStatement) Response(ctx context.Context) (*QueryResponse, error) {
	var resp QueryResponse
	if err := decodeBody("status", s.raw, &resp); err != nil {
		return nil, err
	}
	if resp.StatementHandle == "" {
		resp.StatementHandle = s.handle
	}
	if err := s.client.assemble(ctx, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Selected decodes a completed batch statement with schema.
func Selected[T any](ctx context.Context, s *CompletedStatement, schema *decode.Schema[T]) ([]T, error) {
	resp, err := s.Response(ctx)
	if err != nil {
		return nil, err
	}
	return Decode(resp, schema)
}
