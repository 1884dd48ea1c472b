package snowapi

import (
	"context"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
)

// classify maps a submission or status reply onto an Outcome. A known handle
// stands in for one the body omits.
func (c *Client) classify(ctx context.Context, op string, known StatementHandle, raw *rawResponse) (*Outcome, error) {
	switch raw.StatusCode {
	case http.StatusOK:
		var resp QueryResponse
		if err := decodeBody(op, raw, &resp); err != nil {
			return nil, err
		}
		if resp.StatementHandle == "" {
			resp.StatementHandle = known
		}
		if err := c.assemble(ctx, &resp); err != nil {
			return nil, err
		}
		return &Outcome{Response: &resp}, nil
	case http.StatusAccepted, http.StatusRequestTimeout:
		var status QueryStatus
		if err := decodeBody(op, raw, &status); err != nil {
			return nil, err
		}
		if status.StatementHandle == "" {
			status.StatementHandle = known
		}
		return &Outcome{Pending: &Pending{client: c, status: status}}, nil
	case http.StatusUnprocessableEntity:
		return nil, failure(op, raw)
	default:
		return nil, &UnknownStatusError{Op: op, StatusCode: raw.StatusCode, Body: raw.Body}
	}
}

func (c *Client) getStatus(ctx context.Context, handle StatementHandle) (*rawResponse, error) {
	query := url.Values{}
	query.Set("nullable", "false")
	return c.send(ctx, "status", http.MethodGet, statementPath(handle), query, nil,
		attribute.String("snowapi.statement_handle", handle.String()))
}

// Status polls a statement by handle. Besides the classification of Run,
// 429, 503 and 504 replies return a *RateLimitedError; the statement is then
// still pending.
func (c *Client) Status(ctx context.Context, handle StatementHandle) (*Outcome, error) {
	raw, err := c.getStatus(ctx, handle)
	if err != nil {
		return nil, err
	}
	if isRateLimited(raw.StatusCode) {
		return nil, &RateLimitedError{StatusCode: raw.StatusCode, Handle: handle, RetryAfter: retryAfter(raw.Header)}
	}
	return c.classify(ctx, "status", handle, raw)
}

// Cancel asks the service to stop a running statement. Only 200 counts as
// success.
func (c *Client) Cancel(ctx context.Context, handle StatementHandle) error {
	raw, err := c.send(ctx, "cancel", http.MethodPost, statementPath(handle)+"/cancel", nil, nil,
		attribute.String("snowapi.statement_handle", handle.String()))
	if err != nil {
		return err
	}
	if raw.StatusCode != http.StatusOK {
		return &UnknownStatusError{Op: "cancel", StatusCode: raw.StatusCode, Body: raw.Body}
	}
	c.logger.InfoContext(ctx, "statement cancelled", "handle", handle)
	return nil
}
