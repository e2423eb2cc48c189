// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/furrow/internal/logging"
	"github.com/tomtom215/furrow/internal/metrics"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", maxRequestIDLen+1)
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"upstream id kept", "abc-123", true},
		{"oversize id replaced", long, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var seen, correlation string
			h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = logging.RequestIDFromContext(r.Context())
				correlation = logging.CorrelationIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q: want equal and non-empty", got, seen)
			}
			if tt.keep != (got == tt.incoming) {
				t.Errorf("request id = %q, incoming %q, keep = %v", got, tt.incoming, tt.keep)
			}
			if correlation == "" {
				t.Error("no correlation id in context")
			}
		})
	}
}

func TestPrometheusUsesRoutePattern(t *testing.T) {
	t.Parallel()
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(Prometheus(m))
	r.Get("/tiles/{z}/{x}/{y}.png", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, path := range []string{"/tiles/18/1/2.png", "/tiles/19/3/4.png", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.CollectAndCount(m.APIRequestDuration); got != 2 {
		t.Errorf("series = %d, want 2 (one tile pattern, one unmatched)", got)
	}
	tile := m.APIRequestDuration.WithLabelValues(http.MethodGet, "/tiles/{z}/{x}/{y}.png", "204")
	if got := testutil.CollectAndCount(tile.(prometheus.Collector)); got != 1 {
		t.Errorf("tile series count = %d, want 1", got)
	}
}

func TestAccessLogKeepsStatus(t *testing.T) {
	t.Parallel()
	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "short and stout" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestCompression(t *testing.T) {
	t.Parallel()

	body := strings.Repeat(`{"success":true}`, 100)
	tests := []struct {
		name        string
		contentType string
		accept      string
		wantGzip    bool
	}{
		{"json compressed", "application/json; charset=utf-8", "gzip, deflate", true},
		{"png untouched", "image/png", "gzip", false},
		{"client without gzip", "application/json", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = io.WriteString(w, body)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Encoding", tt.accept)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			gotGzip := rec.Header().Get("Content-Encoding") == "gzip"
			if gotGzip != tt.wantGzip {
				t.Fatalf("gzip = %v, want %v", gotGzip, tt.wantGzip)
			}
			got := rec.Body.Bytes()
			if gotGzip {
				zr, err := gzip.NewReader(bytes.NewReader(got))
				if err != nil {
					t.Fatalf("gzip.NewReader() error = %v", err)
				}
				if got, err = io.ReadAll(zr); err != nil {
					t.Fatalf("ReadAll() error = %v", err)
				}
			}
			if string(got) != body {
				t.Errorf("body mismatch after decoding (%d bytes)", len(got))
			}
		})
	}
}

func TestCompressionSkipsNoContent(t *testing.T) {
	t.Parallel()
	h := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reset", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "" || rec.Body.Len() != 0 {
		t.Errorf("204 response was encoded: %q, %d bytes", rec.Header().Get("Content-Encoding"), rec.Body.Len())
	}
}
