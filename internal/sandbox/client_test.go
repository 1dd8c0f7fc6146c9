package sandbox

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"claimcheck/internal/config"
)

func fakeSandboxServer(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/sandboxes":
			json.NewEncoder(w).Encode(map[string]string{"sandbox_id": "sb-1"})
		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/sandboxes/sb-1/files"):
			body, _ := io.ReadAll(r.Body)
			if string(body) != "a,b\n1,2\n" {
				t.Errorf("unexpected upload body %q", body)
			}
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && r.URL.Path == "/sandboxes/sb-1/code":
			var req map[string]string
			json.NewDecoder(r.Body).Decode(&req)
			if req["language"] != "python" {
				t.Errorf("unexpected language %q", req["language"])
			}
			json.NewEncoder(w).Encode(Execution{Stdout: "ok", ExitCode: 0})
		case r.Method == http.MethodDelete && r.URL.Path == "/sandboxes/sb-1":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return srv, &calls
}

func TestSessionLifecycle(t *testing.T) {
	srv, calls := fakeSandboxServer(t)
	defer srv.Close()

	client := NewClient(config.Sandbox{BaseURL: srv.URL, APIKey: "test-key", Timeout: 5 * time.Second})
	ctx := context.Background()

	session, err := client.Open(ctx)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if session.ID != "sb-1" {
		t.Fatalf("unexpected session id %q", session.ID)
	}

	if err := session.UploadFile(ctx, "dataset.csv", strings.NewReader("a,b\n1,2\n")); err != nil {
		t.Fatalf("UploadFile error: %v", err)
	}

	exec, err := session.RunCode(ctx, "print('ok')")
	if err != nil {
		t.Fatalf("RunCode error: %v", err)
	}
	if exec.Stdout != "ok" || exec.ExitCode != 0 {
		t.Fatalf("unexpected execution %+v", exec)
	}

	if err := session.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	want := []string{
		"POST /sandboxes",
		"PUT /sandboxes/sb-1/files",
		"POST /sandboxes/sb-1/code",
		"DELETE /sandboxes/sb-1",
	}
	if len(*calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), *calls)
	}
	for i, w := range want {
		if (*calls)[i] != w {
			t.Fatalf("call %d = %q, want %q", i, (*calls)[i], w)
		}
	}
}

func TestOpenRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(config.Sandbox{BaseURL: srv.URL, APIKey: "k", Timeout: time.Second})
	if _, err := client.Open(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}

func TestCloseSurvivesCancelledCaller(t *testing.T) {
	srv, _ := fakeSandboxServer(t)
	defer srv.Close()

	client := NewClient(config.Sandbox{BaseURL: srv.URL, APIKey: "test-key", Timeout: 5 * time.Second})
	session, err := client.Open(context.Background())
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	// Close must release the remote session even when the evaluation
	// context is already dead.
	if err := session.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}
