// SPDX-License-Identifier: MPL-2.0

package action

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"autokit-cli/internal/rest"
)

func stdoutServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()
	var format string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/jobs/9/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":   9,
			"type": "job",
			"related": map[string]any{
				"stdout": "/api/v2/jobs/9/stdout/",
			},
		})
	})
	mux.HandleFunc("/api/v2/jobs/9/stdout/", func(w http.ResponseWriter, r *http.Request) {
		format = r.URL.Query().Get("format")
		_, _ = w.Write([]byte("PLAY [all] *****\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &format
}

func TestStdout_PlainTextWhenColorDisabled(t *testing.T) {
	t.Parallel()

	srv, format := stdoutServer(t)
	conn := rest.NewConnection(srv.URL)
	h := &jobStdout{
		res:         rest.NewResource(conn, "/api/v2/jobs/"),
		colorOutput: func() bool { return false },
	}

	out, err := h.Perform(context.Background(), Params{"id": "9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *format != "txt_download" {
		t.Errorf("format: got %q, want txt_download", *format)
	}
	if out.(string) != "PLAY [all] *****\n" {
		t.Errorf("body: got %q", out)
	}
}

func TestStdout_ANSIWhenColorEnabled(t *testing.T) {
	t.Parallel()

	srv, format := stdoutServer(t)
	conn := rest.NewConnection(srv.URL)
	h := &jobStdout{
		res:         rest.NewResource(conn, "/api/v2/jobs/"),
		colorOutput: func() bool { return true },
	}

	if _, err := h.Perform(context.Background(), Params{"id": "9"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *format != "ansi_download" {
		t.Errorf("format: got %q, want ansi_download", *format)
	}
}

func TestStdout_ResolvesNameToID(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "nightly-deploy" {
			t.Errorf("name filter: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"count": 1,
			"results": []any{
				map[string]any{"id": 9, "url": "/api/v2/jobs/9/", "name": "nightly-deploy"},
			},
		})
	})
	mux.HandleFunc("/api/v2/jobs/9/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 9, "type": "job",
			"related": map[string]any{"stdout": "/api/v2/jobs/9/stdout/"},
		})
	})
	mux.HandleFunc("/api/v2/jobs/9/stdout/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("output\n"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	conn := rest.NewConnection(srv.URL)
	h := &jobStdout{
		res:         rest.NewResource(conn, "/api/v2/jobs/"),
		colorOutput: func() bool { return false },
	}
	out, err := h.Perform(context.Background(), Params{"id": "nightly-deploy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(string) != "output\n" {
		t.Errorf("body: got %q", out)
	}
}
