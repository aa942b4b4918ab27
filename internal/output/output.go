// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package output serializes a completed batch for the CLI. Every result set is
// written independently and the pieces are concatenated in execution order.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"pgpane/cli/internal/errors"
	"pgpane/cli/internal/results"
)

// Format is an output format.
type Format string

const (
	Table Format = "table"
	CSV   Format = "csv"
	JSON  Format = "json"
)

// Formats lists the supported formats.
var Formats = []Format{Table, CSV, JSON}

// ParseFormat validates a format name; empty means Table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return Table, nil
	case Table, CSV, JSON:
		return f, nil
	default:
		return "", errors.New(errors.InvalidConfig, fmt.Sprintf("unknown output format %q (want table, csv or json)", s))
	}
}

// Options tune the table format.
type Options struct {
	// Expanded writes one record block per row instead of a grid.
	Expanded bool
	// Timing appends the elapsed time.
	Timing  bool
	Elapsed time.Duration
}

// Write serializes b to w.
func Write(w io.Writer, f Format, b results.Batch, opts Options) error {
	var err error
	switch f {
	case CSV:
		err = writeCSV(w, b)
	case JSON:
		err = writeJSON(w, b)
	default:
		err = writeTable(w, b, opts)
	}
	if err != nil {
		return errors.Wrap(errors.Output, "write results", err)
	}
	return nil
}
