// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

// Package main is the lodestone workbench CLI. Commands operate on
// ratings and movies CSV files directly, so no server or database is
// required; see the cli package for the command tree.
package main

import (
	"os"

	"github.com/tomtom215/lodestone/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
