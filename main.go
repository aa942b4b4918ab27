// Copyright (c) 2025 pgpane
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package main is the entry point for pgpane, a terminal client for PostgreSQL.
package main

import (
	"pgpane/cli/cmd"
)

func main() {
	cmd.Execute()
}
