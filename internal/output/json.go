// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"pgpane/cli/internal/results"
)

type jsonColumn struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// writeJSON writes the batch as an array with one object per set:
//
//	[{"columns": [{"name": "id", "type": "int4"}], "rows": [{"id": 1}]}]
//
// Row object keys keep column order. A set without rows still lists its columns.
func writeJSON(w io.Writer, b results.Batch) error {
	bw := bufio.NewWriter(w)
	if len(b.Sets) == 0 {
		bw.WriteString("[]\n")
		return bw.Flush()
	}
	bw.WriteString("[\n")
	for i, rs := range b.Sets {
		if err := writeSet(bw, rs); err != nil {
			return err
		}
		if i+1 < len(b.Sets) {
			bw.WriteString(",")
		}
		bw.WriteString("\n")
	}
	bw.WriteString("]\n")
	return bw.Flush()
}

func writeSet(bw *bufio.Writer, rs results.ResultSet) error {
	cols := make([]jsonColumn, len(rs.Columns))
	keys := make([][]byte, len(rs.Columns))
	for i, c := range rs.Columns {
		cols[i] = jsonColumn{Name: c.Name, Type: c.Type}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return err
		}
		keys[i] = k
	}
	header, err := json.Marshal(cols)
	if err != nil {
		return err
	}

	bw.WriteString("  {\n    \"columns\": ")
	bw.Write(header)
	if len(rs.Rows) == 0 {
		bw.WriteString(",\n    \"rows\": []\n  }")
		return nil
	}
	bw.WriteString(",\n    \"rows\": [\n")
	for r, row := range rs.Rows {
		bw.WriteString("      {")
		for i, v := range row {
			if i > 0 {
				bw.WriteString(", ")
			}
			val, err := json.Marshal(v.Interface())
			if err != nil {
				return err
			}
			bw.Write(keys[i])
			bw.WriteString(": ")
			bw.Write(val)
		}
		bw.WriteString("}")
		if r+1 < len(rs.Rows) {
			bw.WriteString(",")
		}
		bw.WriteString("\n")
	}
	bw.WriteString("    ]\n  }")
	return nil
}

// ReadJSON parses the JSON format back into a batch.
func ReadJSON(r io.Reader) (results.Batch, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var b results.Batch
	if err := expectDelim(dec, '['); err != nil {
		return b, err
	}
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return b, err
		}
		rs, err := readSet(dec)
		if err != nil {
			return b, err
		}
		b.Sets = append(b.Sets, rs)
	}
	return b, expectDelim(dec, ']')
}

// readSet reads one set object after its opening '{', up to and including the
// closing '}'.
func readSet(dec *json.Decoder) (results.ResultSet, error) {
	var (
		cols    []jsonColumn
		rows    [][]results.Value
		hasCols bool
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return results.ResultSet{}, err
		}
		switch tok {
		case "columns":
			if err := dec.Decode(&cols); err != nil {
				return results.ResultSet{}, err
			}
			hasCols = true
		case "rows":
			if rows, err = readRows(dec); err != nil {
				return results.ResultSet{}, err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return results.ResultSet{}, err
			}
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return results.ResultSet{}, err
	}
	if !hasCols {
		return results.ResultSet{}, fmt.Errorf("result set without columns")
	}

	columns := make([]results.Column, len(cols))
	for i, c := range cols {
		columns[i] = results.Column{Name: c.Name, Type: c.Type, Nullable: true}
	}
	rs := results.NewResultSet(columns...)
	for _, row := range rows {
		if err := rs.Append(row); err != nil {
			return rs, err
		}
	}
	return rs, nil
}

// readRows reads an array of row objects. Values are taken in key order.
func readRows(dec *json.Decoder) ([][]results.Value, error) {
	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	var rows [][]results.Value
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, err
		}
		var row []results.Value
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			if _, ok := tok.(string); !ok {
				return nil, fmt.Errorf("expected column name, got %v", tok)
			}
			var v any
			if err := dec.Decode(&v); err != nil {
				return nil, err
			}
			row = append(row, results.FromInterface(v))
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, expectDelim(dec, ']')
}

func expectDelim(dec *json.Decoder, d json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok != d {
		return fmt.Errorf("expected %v, got %v", d, tok)
	}
	return nil
}
