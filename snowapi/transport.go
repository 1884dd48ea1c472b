package snowapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const statementsPath = "/statements"

// rawResponse is a fully read HTTP response.
type rawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func statementPath(handle StatementHandle) string {
	return statementsPath + "/" + url.PathEscape(string(handle))
}

// send issues one request inside a client span and reads the whole body.
// Only send and read failures are errors here; status classification is left
// to the caller.
func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body any, attrs ...attribute.KeyValue) (*rawResponse, error) {
	ctx, span := c.tracer.Start(ctx, "snowapi."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...))
	defer span.End()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header = c.header.Clone()

	c.logger.DebugContext(ctx, "sending request", "op", op, "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return nil, &TransportError{Op: op, Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, &TransportError{Op: op, Method: method, URL: target, Err: err}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.DebugContext(ctx, "received response", "op", op, "status", resp.StatusCode, "bytes", len(data))
	return &rawResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// decodeBody unmarshals raw into v, wrapping failures as *DecodeError.
func decodeBody(op string, raw *rawResponse, v any) error {
	if err := json.Unmarshal(raw.Body, v); err != nil {
		return &DecodeError{Op: op, StatusCode: raw.StatusCode, Body: raw.Body, Err: err}
	}
	return nil
}

// failure decodes a 422 body into the service's failure status.
func failure(op string, raw *rawResponse) error {
	var status QueryFailureStatus
	if err := decodeBody(op, raw, &status); err != nil {
		return err
	}
	return &status
}

func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
