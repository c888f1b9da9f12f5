// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package database

import (
	"math"
	"testing"
)

// Test assertion helpers with "check" prefix. Each helper encapsulates
// a common validation pattern; t.Helper() keeps failure messages
// pointing at the calling line.

// checkNoError fails the test if err is not nil
func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// checkError fails the test if err is nil
func checkError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// checkStringEqual checks that got equals want
func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

// checkStringNotEmpty checks that value is not empty
func checkStringNotEmpty(t *testing.T, fieldName, value string) {
	t.Helper()
	if value == "" {
		t.Errorf("%s should not be empty", fieldName)
	}
}

// checkIntEqual checks that got equals want
func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

// checkInt64Equal checks that got equals want
func checkInt64Equal(t *testing.T, fieldName string, got, want int64) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

// checkFloatClose checks that got is within tolerance of want
func checkFloatClose(t *testing.T, fieldName string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s: expected %v, got %v", fieldName, want, got)
	}
}

// checkSliceLen checks that slice length equals want
func checkSliceLen(t *testing.T, name string, length, want int) {
	t.Helper()
	if length != want {
		t.Fatalf("%s: expected %d items, got %d", name, want, length)
	}
}

// checkSliceNotEmpty checks that slice length > 0
func checkSliceNotEmpty(t *testing.T, name string, length int) {
	t.Helper()
	if length == 0 {
		t.Errorf("%s should not be empty", name)
	}
}

// checkSliceEmpty checks that slice length == 0
func checkSliceEmpty(t *testing.T, name string, length int) {
	t.Helper()
	if length != 0 {
		t.Errorf("%s should be empty, got %d items", name, length)
	}
}
