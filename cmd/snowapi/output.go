package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/vjain20/gosnowapi/snowapi"
)

const nullText = "NULL"

func writeResult(w io.Writer, resp *snowapi.QueryResponse, format string) error {
	switch format {
	case "json":
		return writeJSON(w, resp)
	case "table", "":
		return writeTable(w, resp)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// writeJSON prints one object per row keyed by column name.
func writeJSON(w io.Writer, resp *snowapi.QueryResponse) error {
	rows := resp.Lazy()
	enc := json.NewEncoder(w)
	for n := range rows.Len() {
		row, _ := rows.At(n)
		obj := make(map[string]*string, len(rows.Columns()))
		for i, name := range rows.Columns() {
			raw, err := row.RawAt(i)
			if err != nil {
				return err
			}
			obj[name] = raw
		}
		if err := enc.Encode(obj); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, resp *snowapi.QueryResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(resp.Columns(), "\t"))
	for _, row := range resp.Data {
		cells := make([]string, len(row))
		for i, c := range row {
			if c == nil {
				cells[i] = nullText
			} else {
				cells[i] = *c
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if stats := resp.Stats; stats != nil {
		fmt.Fprintf(tw, "(%d inserted, %d updated, %d deleted)\n",
			stats.NumRowsInserted, stats.NumRowsUpdated, stats.NumRowsDeleted)
	} else {
		fmt.Fprintf(tw, "(%d rows)\n", len(resp.Data))
	}
	return tw.Flush()
}
