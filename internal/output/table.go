// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

package output

import (
	"bufio"
	"fmt"
	"io"

	"pgpane/cli/internal/results"
)

func writeTable(w io.Writer, b results.Batch, opts Options) error {
	bw := bufio.NewWriter(w)
	for i, rs := range b.Sets {
		if len(b.Sets) > 1 {
			fmt.Fprintf(bw, "-- Result Set %d --\n", i+1)
		}
		lines := results.Tabular(rs, 0)
		if opts.Expanded {
			lines = results.Expanded(rs)
		}
		for _, l := range lines {
			fmt.Fprintln(bw, l)
		}
		fmt.Fprintf(bw, "\n%s\n", rowCount(len(rs.Rows)))
	}
	for _, tag := range b.Tags {
		fmt.Fprintln(bw, tag)
	}
	if opts.Timing {
		fmt.Fprintf(bw, "(%dms)\n", opts.Elapsed.Milliseconds())
	}
	return bw.Flush()
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", n)
}
