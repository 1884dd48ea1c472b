package snowapi

import "github.com/vjain20/gosnowapi/snowapi/bindings"

// StatementHandle identifies one submitted statement.
type StatementHandle string

func (h StatementHandle) String() string { return string(h) }

// StatementRequest represents the request body for executing a SQL statement.
type StatementRequest struct {
	Statement  string                    `json:"statement"`
	Timeout    *uint32                   `json:"timeout,omitempty"`
	Database   string                    `json:"database"`
	Schema     string                    `json:"schema,omitempty"`
	Warehouse  string                    `json:"warehouse,omitempty"`
	Role       string                    `json:"role,omitempty"`
	Bindings   map[string]bindings.Value `json:"bindings,omitempty"`
	Parameters *Parameters               `json:"parameters,omitempty"`
}

// Parameters carries session parameters for a single request.
type Parameters struct {
	MultiStatementCount int `json:"MULTI_STATEMENT_COUNT,string"`
}

// QueryResponse represents a successful execution of a SQL statement.
type QueryResponse struct {
	ResultSetMetaData  ResultSetMetaData `json:"resultSetMetaData"`
	Data               [][]*string       `json:"data"`
	Code               string            `json:"code"`
	StatementStatusURL string            `json:"statementStatusUrl"`
	StatementHandle    StatementHandle   `json:"statementHandle"`
	RequestID          string            `json:"requestId"`
	SQLState           string            `json:"sqlState"`
	Message            string            `json:"message"`
	CreatedOn          int64             `json:"createdOn"`
	Stats              *Stats            `json:"stats,omitempty"`
}

// Columns returns the column names in projection order.
func (r *QueryResponse) Columns() []string {
	names := make([]string, len(r.ResultSetMetaData.RowType))
	for i, c := range r.ResultSetMetaData.RowType {
		names[i] = c.Name
	}
	return names
}

// ResultSetMetaData describes the metadata for returned data.
type ResultSetMetaData struct {
	NumRows       int             `json:"numRows"`
	Format        string          `json:"format"`
	RowType       []ColumnMeta    `json:"rowType"`
	PartitionInfo []PartitionMeta `json:"partitionInfo"`
}

// ColumnMeta describes a single column in the result set.
type ColumnMeta struct {
	Name       string  `json:"name"`
	Database   string  `json:"database"`
	Schema     string  `json:"schema"`
	Table      string  `json:"table"`
	Nullable   bool    `json:"nullable"`
	Scale      *int    `json:"scale"`
	ByteLength *int    `json:"byteLength"`
	Length     *int    `json:"length"`
	Type       string  `json:"type"`
	Precision  *int    `json:"precision"`
	Collation  *string `json:"collation"`
}

// PartitionMeta provides partition-level metadata (when results are paginated).
type PartitionMeta struct {
	RowCount         int  `json:"rowCount"`
	UncompressedSize int  `json:"uncompressedSize"`
	CompressedSize   *int `json:"compressedSize,omitempty"`
}

// Stats reports rows touched by a DML statement.
type Stats struct {
	NumRowsInserted         int64 `json:"numRowsInserted"`
	NumRowsUpdated          int64 `json:"numRowsUpdated"`
	NumRowsDeleted          int64 `json:"numRowsDeleted"`
	NumDuplicateRowsUpdated int64 `json:"numDuplicateRowsUpdated"`
}

// partitionResponse is the body of a partition fetch.
type partitionResponse struct {
	Data [][]*string `json:"data"`
}

// QueryStatus is returned while a statement is still running (202, 408).
type QueryStatus struct {
	Code               string          `json:"code"`
	SQLState           string          `json:"sqlState"`
	Message            string          `json:"message"`
	StatementHandle    StatementHandle `json:"statementHandle"`
	CreatedOn          int64           `json:"createdOn"`
	StatementStatusURL string          `json:"statementStatusUrl"`
}

// multiStatementResponse carries the per-statement handles of a batch.
type multiStatementResponse struct {
	StatementHandle  StatementHandle   `json:"statementHandle"`
	StatementHandles []StatementHandle `json:"statementHandles"`
	Message          string            `json:"message"`
}
