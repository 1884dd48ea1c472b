package snowapi

import (
	"context"
	"maps"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vjain20/gosnowapi/snowapi/bindings"
	"github.com/vjain20/gosnowapi/snowapi/decode"
)

// Statement builds a single SQL statement request. Each Run or Text call
// submits it once under a fresh request id.
type Statement struct {
	client *Client
	req    StatementRequest
}

// SQL starts a statement using the client's default database, schema,
// warehouse and role.
func (c *Client) SQL(statement string) *Statement {
	return &Statement{
		client: c,
		req: StatementRequest{
			Statement: statement,
			Database:  c.config.Database,
			Schema:    c.config.Schema,
			Warehouse: c.config.Warehouse,
			Role:      c.config.Role,
		},
	}
}

// WithTimeout sets the server-side execution timeout in seconds.
func (s *Statement) WithTimeout(seconds uint32) *Statement {
	s.req.Timeout = &seconds
	return s
}

func (s *Statement) WithRole(role string) *Statement {
	s.req.Role = role
	return s
}

func (s *Statement) WithWarehouse(warehouse string) *Statement {
	s.req.Warehouse = warehouse
	return s
}

func (s *Statement) WithDatabase(database string) *Statement {
	s.req.Database = database
	return s
}

func (s *Statement) WithSchema(schema string) *Statement {
	s.req.Schema = schema
	return s
}

// AddBinding attaches the next positional parameter. The first binding is
// sent under key "1".
func (s *Statement) AddBinding(v bindings.Value) *Statement {
	if s.req.Bindings == nil {
		s.req.Bindings = make(map[string]bindings.Value)
	}
	s.req.Bindings[strconv.Itoa(len(s.req.Bindings)+1)] = v
	return s
}

// Request returns a copy of the body that Run would send.
func (s *Statement) Request() StatementRequest {
	req := s.req
	req.Bindings = maps.Clone(s.req.Bindings)
	return req
}

func (s *Statement) submit(ctx context.Context, op string) (*rawResponse, error) {
	requestID := uuid.NewString()
	query := url.Values{}
	query.Set("nullable", "false")
	query.Set("requestId", requestID)
	return s.client.send(ctx, op, http.MethodPost, statementsPath, query, s.req,
		attribute.String("snowapi.request_id", requestID),
		attribute.Int("snowapi.bindings", len(s.req.Bindings)))
}

// Run submits the statement and classifies the reply. A 200 yields a
// complete response with every partition merged, 202 and 408 yield a
// Pending continuation and 422 a *QueryFailureStatus error.
func (s *Statement) Run(ctx context.Context) (*Outcome, error) {
	raw, err := s.submit(ctx, "execute")
	if err != nil {
		return nil, err
	}
	return s.client.classify(ctx, "execute", "", raw)
}

// Text submits the statement and returns the raw response body whatever the
// status code.
func (s *Statement) Text(ctx context.Context) (string, error) {
	raw, err := s.submit(ctx, "text")
	if err != nil {
		return "", err
	}
	return string(raw.Body), nil
}

// Outcome is the classified reply to a submission or status poll. Exactly one
// of Response and Pending is set.
type Outcome struct {
	Response *QueryResponse
	Pending  *Pending
}

// Done reports whether the statement finished successfully.
func (o *Outcome) Done() bool { return o.Response != nil }

// Pending is a statement the service is still executing.
type Pending struct {
	client *Client
	status QueryStatus
}

// Status returns the last status reported for the statement.
func (p *Pending) Status() QueryStatus { return p.status }

func (p *Pending) Handle() StatementHandle { return p.status.StatementHandle }

// Poll asks for the statement's state again. When it is still running the
// returned Outcome carries a fresh Pending.
func (p *Pending) Poll(ctx context.Context) (*Outcome, error) {
	return p.client.Status(ctx, p.Handle())
}

// Cancel asks the service to stop the statement. Callers should stop polling
// it afterwards.
func (p *Pending) Cancel(ctx context.Context) error {
	return p.client.Cancel(ctx, p.Handle())
}

// Selection is the result of Select: decoded rows, or a Pending statement.
type Selection[T any] struct {
	Rows    []T
	Pending *Pending
}

// Select runs st and decodes a completed result with schema.
func Select[T any](ctx context.Context, st *Statement, schema *decode.Schema[T]) (*Selection[T], error) {
	out, err := st.Run(ctx)
	if err != nil {
		return nil, err
	}
	if !out.Done() {
		return &Selection[T]{Pending: out.Pending}, nil
	}
	rows, err := Decode(out.Response, schema)
	if err != nil {
		return nil, err
	}
	return &Selection[T]{Rows: rows}, nil
}

// Decode converts every row of resp with schema, failing on the first
// *decode.FieldError.
func Decode[T any](resp *QueryResponse, schema *decode.Schema[T]) ([]T, error) {
	return schema.DecodeAll(resp.Data, resp.ResultSetMetaData.NumRows)
}

// Lazy returns a column-indexed view over the response rows.
func (r *QueryResponse) Lazy() *decode.Rows {
	return decode.NewRows(r.Columns(), r.Data)
}
