// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package output

import (
	"encoding/csv"
	"io"

	"pgpane/cli/internal/results"
)

// writeCSV writes a header and the rows of every set. NULL is an empty field.
func writeCSV(w io.Writer, b results.Batch) error {
	cw := csv.NewWriter(w)
	for _, rs := range b.Sets {
		if err := cw.Write(rs.ColumnNames()); err != nil {
			return err
		}
		record := make([]string, len(rs.Columns))
		for _, row := range rs.Rows {
			for i, v := range row {
				if v.IsNull() {
					record[i] = ""
				} else {
					record[i] = v.String()
				}
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
