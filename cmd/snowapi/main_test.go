package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vjain20/gosnowapi/snowapi"
	"github.com/vjain20/gosnowapi/snowapi/bindings"
	"github.com/vjain20/gosnowapi/snowapi/snowapitest"
)

func TestParseBinding(t *testing.T) {
	tests := []struct {
		input string
		typ   bindings.Type
		value string
	}{
		{"int:69", bindings.Fixed, "69"},
		{"uint:7", bindings.Fixed, "7"},
		{"float:1.5", bindings.Real, "1.5"},
		{"bool:true", bindings.Boolean, "true"},
		{"decimal:12.50", bindings.Fixed, "12.5"},
		{"date:1970-01-02", bindings.Date, "86400000"},
		{"time:00:01:30", bindings.Time, "1.5"},
		{"ts:1970-01-01T00:00:01Z", bindings.TimestampNTZ, "1000000000"},
		{"text:a:b", bindings.Text, "a:b"},
		{"JoMama", bindings.Text, "JoMama"},
		{"http://x", bindings.Text, "http://x"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := parseBinding(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, v.Type())
			assert.Equal(t, tt.value, v.String())
		})
	}

	_, err := parseBinding("int:abc")
	assert.Error(t, err)
}

func TestSplitCount(t *testing.T) {
	n, sql := splitCount("3:SELECT 1; SELECT 2; SELECT 3;")
	assert.Equal(t, 3, n)
	assert.Equal(t, "SELECT 1; SELECT 2; SELECT 3;", sql)

	n, sql = splitCount("SELECT 'a:b';")
	assert.Equal(t, 1, n)
	assert.Equal(t, "SELECT 'a:b';", sql)
}

func TestWriteResult(t *testing.T) {
	resp := &snowapi.QueryResponse{
		ResultSetMetaData: snowapi.ResultSetMetaData{RowType: []snowapi.ColumnMeta{{Name: "ID"}, {Name: "NAME"}}},
		Data:              [][]*string{snowapitest.Row("1", nil)},
	}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, resp, "table"))
	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(1 rows)")

	buf.Reset()
	require.NoError(t, writeResult(&buf, resp, "json"))
	assert.JSONEq(t, `{"ID":"1","NAME":null}`, strings.TrimSpace(buf.String()))

	assert.Error(t, writeResult(&buf, resp, "xml"))
}

func setupCLI(t *testing.T) *snowapitest.Server {
	t.Helper()
	srv := snowapitest.NewServer(t)
	path := filepath.Join(t.TempDir(), "connections.toml")
	doc := fmt.Sprintf("[test]\nhost = %q\ntoken = \"t\"\ndatabase = \"TESTDB\"\n", srv.Host())
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	t.Cleanup(func() {
		configPath, connectionName, outputFormat = "", "", "table"
		queryBinds = nil
	})
	configPath, connectionName = path, "test"
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", configPath, "--connection", connectionName))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQueryCommand(t *testing.T) {
	srv := setupCLI(t)
	srv.QueueSubmit(snowapitest.JSON(http.StatusOK,
		snowapitest.Result("h1", []string{"ID"}, [][]*string{snowapitest.Row("69")})))

	out, err := run(t, "query", "SELECT ID FROM T WHERE ID = ?", "--bind", "int:69", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ID":"69"}`, strings.TrimSpace(out))

	reqs := srv.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, string(reqs[0].Body), `"bindings":{"1":{"type":"FIXED","value":"69"}}`)
}

func TestBatchCommand(t *testing.T) {
	srv := setupCLI(t)
	srv.QueueSubmit(snowapitest.Batch("h1", "h2"))
	srv.QueueStatus("h1", snowapitest.JSON(http.StatusOK, snowapitest.Result("h1", []string{"A"}, [][]*string{snowapitest.Row("x")})))
	srv.QueueStatus("h2", snowapitest.Failed("h2", "002003", "missing"))

	out, err := run(t, "batch", "SELECT 'x';", "SELECT * FROM NOPE;")
	assert.ErrorContains(t, err, "1 of 2 statements failed")
	assert.Contains(t, out, "-- h1")
	assert.Contains(t, out, "-- h2 failed")
}

func TestStatusAndCancelCommands(t *testing.T) {
	srv := setupCLI(t)
	srv.QueueStatus("h1", snowapitest.Running("h1"))
	srv.SetCancel("h1", snowapitest.JSON(http.StatusOK, map[string]string{"message": "ok"}))

	out, err := run(t, "status", "h1")
	require.NoError(t, err)
	assert.Contains(t, out, "still running")

	out, err = run(t, "cancel", "h1")
	require.NoError(t, err)
	assert.Contains(t, out, "statement h1 cancelled")
}

func TestInstallTracer(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := installTracer(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	_, span := otel.Tracer("test").Start(context.Background(), "snowapi.execute")
	span.End()
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "snowapi.execute")
}
