package snowapitest

import "net/http"

// Cell returns a pointer to s for building row data.
func Cell(s string) *string { return &s }

// Row builds a row from strings; nil entries are written as SQL NULL.
func Row(cells ...any) []*string {
	row := make([]*string, len(cells))
	for i, c := range cells {
		if s, ok := c.(string); ok {
			row[i] = Cell(s)
		}
	}
	return row
}

// Result builds a 200 result body. With no partitionRows the whole of rows
// forms a single partition; otherwise rows is partition 0 and partitionRows
// lists the row count of every partition including it.
func Result(handle string, columns []string, rows [][]*string, partitionRows ...int) map[string]any {
	rowType := make([]map[string]any, len(columns))
	for i, name := range columns {
		rowType[i] = map[string]any{"name": name, "type": "text", "nullable": true}
	}
	if len(partitionRows) == 0 {
		partitionRows = []int{len(rows)}
	}
	total := 0
	info := make([]map[string]any, len(partitionRows))
	for i, n := range partitionRows {
		total += n
		info[i] = map[string]any{"rowCount": n, "uncompressedSize": 0}
	}
	return map[string]any{
		"resultSetMetaData": map[string]any{
			"numRows":       total,
			"format":        "jsonv2",
			"rowType":       rowType,
			"partitionInfo": info,
		},
		"data":               rows,
		"code":               "090001",
		"statementHandle":    handle,
		"statementStatusUrl": APIPath + "/statements/" + handle,
		"sqlState":           "00000",
		"message":            "Statement executed successfully.",
		"createdOn":          1700000000000,
	}
}

// Partition builds a partition body.
func Partition(rows [][]*string) map[string]any {
	return map[string]any{"data": rows}
}

// Running builds a 202 reply for handle.
func Running(handle string) Reply {
	return JSON(http.StatusAccepted, map[string]any{
		"code":               "333334",
		"sqlState":           "",
		"message":            "Asynchronous execution in progress.",
		"statementHandle":    handle,
		"createdOn":          1700000000000,
		"statementStatusUrl": APIPath + "/statements/" + handle,
	})
}

// Failed builds a 422 reply for handle.
func Failed(handle, code, message string) Reply {
	return JSON(http.StatusUnprocessableEntity, map[string]any{
		"code":            code,
		"sqlState":        "42000",
		"message":         message,
		"statementHandle": handle,
	})
}

// Batch builds the submission reply of a multi-statement request.
func Batch(handles ...string) Reply {
	return JSON(http.StatusOK, map[string]any{
		"statementHandle":  handles[0],
		"statementHandles": handles,
		"message":          "Statement executed successfully.",
	})
}
