package snowapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

// FetchPartition returns the rows of one result partition. Partition 0 is
// embedded in the initial response; later ones must be fetched.
func (c *Client) FetchPartition(ctx context.Context, handle StatementHandle, partition int) ([][]*string, error) {
	if partition < 0 {
		return nil, fmt.Errorf("invalid partition index %d", partition)
	}
	query := url.Values{}
	query.Set("partition", strconv.Itoa(partition))
	raw, err := c.send(ctx, "partition", http.MethodGet, statementPath(handle), query, nil,
		attribute.String("snowapi.statement_handle", handle.String()),
		attribute.Int("snowapi.partition", partition))
	if err != nil {
		return nil, err
	}

	switch {
	case raw.StatusCode == http.StatusOK:
		var resp partitionResponse
		if err := decodeBody("partition", raw, &resp); err != nil {
			return nil, err
		}
		return resp.Data, nil
	case raw.StatusCode == http.StatusUnprocessableEntity:
		return nil, failure("partition", raw)
	case isRateLimited(raw.StatusCode):
		return nil, &RateLimitedError{StatusCode: raw.StatusCode, Handle: handle, RetryAfter: retryAfter(raw.Header)}
	default:
		return nil, &UnknownStatusError{Op: "partition", StatusCode: raw.StatusCode, Body: raw.Body}
	}
}

// assemble appends partitions 1..n-1 to resp.Data in order, one request at a
// time. Any failed fetch aborts the read.
func (c *Client) assemble(ctx context.Context, resp *QueryResponse) error {
	parts := resp.ResultSetMetaData.PartitionInfo
	if len(parts) <= 1 {
		return nil
	}
	if resp.StatementHandle == "" {
		return fmt.Errorf("result has %d partitions but no statement handle", len(parts))
	}
	for i := 1; i < len(parts); i++ {
		rows, err := c.FetchPartition(ctx, resp.StatementHandle, i)
		if err != nil {
			return fmt.Errorf("failed to fetch partition %d of %d: %w", i, len(parts), err)
		}
		resp.Data = append(resp.Data, rows...)
	}

	expected := 0
	for _, p := range parts {
		expected += p.RowCount
	}
	if expected != len(resp.Data) {
		c.logger.WarnContext(ctx, "row count mismatch after partition assembly",
			"handle", resp.StatementHandle, "expected", expected, "got", len(resp.Data))
	}
	return nil
}
