package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/retry"
)

func TestRunwayGenerateDownloadsArtifact(t *testing.T) {
	polls := 0
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/v1/text_to_video":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["promptText"] != "a cat in space" {
				t.Errorf("wrong prompt: %v", body["promptText"])
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "task-1"})
		case strings.HasPrefix(r.URL.Path, "/v1/tasks/"):
			polls++
			status := "RUNNING"
			var output []string
			if polls >= 2 {
				status = "SUCCEEDED"
				output = []string{server.URL + "/artifact.mp4"}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id": "task-1", "status": status, "progress": 50, "output": output,
			})
		case r.URL.Path == "/artifact.mp4":
			_, _ = w.Write([]byte("video bytes"))
		}
	}))
	defer server.Close()

	files := newTestFiles(t)
	runway := NewRunway(RunwayConfig{
		BaseURL:      server.URL,
		APIKey:       "key",
		PollInterval: time.Millisecond,
		PollAttempts: 10,
	}, server.Client(), files, nopAudit{})

	filename, err := runway.Generate(context.Background(), "msg-1", "a cat in space")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(filename, "runway_task-1_") || !strings.HasSuffix(filename, ".mp4") {
		t.Fatalf("unexpected artifact filename: %s", filename)
	}
	data, err := os.ReadFile(files.VideoPath(filename))
	if err != nil {
		t.Fatalf("read stored artifact: %v", err)
	}
	if string(data) != "video bytes" {
		t.Fatalf("artifact content mismatch: %q", data)
	}
}

func TestRunwayFailedJobSurfacesReason(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/text_to_video" {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "task-2"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "task-2", "status": "FAILED", "failure": "content policy violation",
		})
	}))
	defer server.Close()

	files := newTestFiles(t)
	runway := NewRunway(RunwayConfig{
		BaseURL:      server.URL,
		APIKey:       "key",
		PollInterval: time.Millisecond,
		PollAttempts: 10,
	}, server.Client(), files, nopAudit{})

	_, err := runway.Generate(context.Background(), "msg-1", "prompt")
	if err == nil {
		t.Fatal("expected error for failed job")
	}
	if !strings.Contains(err.Error(), "content policy violation") {
		t.Fatalf("failure reason should be surfaced, got %v", err)
	}
}

func TestRunwayPollExhaustionFailsHard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/text_to_video" {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "task-3"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "task-3", "status": "RUNNING"})
	}))
	defer server.Close()

	files := newTestFiles(t)
	runway := NewRunway(RunwayConfig{
		BaseURL:      server.URL,
		APIKey:       "key",
		PollInterval: time.Millisecond,
		PollAttempts: 3,
	}, server.Client(), files, nopAudit{})

	_, err := runway.Generate(context.Background(), "msg-1", "prompt")
	if !errors.Is(err, retry.ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
}
