// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPrometheusMetrics_PassesThroughStatus(t *testing.T) {
	t.Parallel()

	codes := []int{
		http.StatusOK,
		http.StatusCreated,
		http.StatusAccepted,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusInternalServerError,
	}
	for _, code := range codes {
		handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/datasets/stats", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != code {
			t.Errorf("status = %d, want %d", rec.Code, code)
		}
	}
}

func TestPrometheusMetrics_DefaultsTo200(t *testing.T) {
	t.Parallel()

	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Errorf("Write() error = %v", err)
		}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok")
	}
}

// hijackableRecorder fakes a hijackable connection for upgrade tests.
type hijackableRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	server, _ := net.Pipe()
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

func TestPrometheusMetrics_UnwrapReachesHijacker(t *testing.T) {
	t.Parallel()

	inner := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}

	handler := PrometheusMetrics(func(w http.ResponseWriter, r *http.Request) {
		rc := http.NewResponseController(w)
		conn, _, err := rc.Hijack()
		if err != nil {
			t.Fatalf("Hijack() error = %v", err)
		}
		conn.Close()
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
	handler(inner, req)

	if !inner.hijacked {
		t.Error("Hijack() did not reach the underlying writer")
	}
}
