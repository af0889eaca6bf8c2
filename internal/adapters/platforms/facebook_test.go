package platforms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

func TestFacebookPhotoVariantWhenImagePresent(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "photo-1", "post_id": "page_post-1"})
	}))
	defer server.Close()

	fb := NewFacebook(FacebookConfig{BaseURL: server.URL, PageID: "page-1", AccessToken: "tok"}, server.Client(), nopAudit{})
	outcome := fb.Publish(context.Background(), ports.PublishRequest{
		MessageID: "msg-1",
		Caption:   "look at this",
		Image:     &domain.MediaRef{PublicURL: "http://media.test/api/images/cat.png"},
	})
	if !outcome.Success {
		t.Fatalf("expected success, got %s", outcome.ErrorMessage)
	}
	if !strings.HasSuffix(gotPath, "/page-1/photos") {
		t.Fatalf("expected photos endpoint, got %s", gotPath)
	}
	if gotBody["url"] != "http://media.test/api/images/cat.png" {
		t.Fatalf("photo body missing url: %v", gotBody)
	}
	if outcome.Link != "https://facebook.com/photo-1" {
		t.Fatalf("wrong link: %s", outcome.Link)
	}
}

func TestFacebookFeedVariantWithoutImage(t *testing.T) {
	var gotPath, gotMessage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMessage = r.URL.Query().Get("message")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "post-2"})
	}))
	defer server.Close()

	fb := NewFacebook(FacebookConfig{BaseURL: server.URL, PageID: "page-1", AccessToken: "tok"}, server.Client(), nopAudit{})
	outcome := fb.Publish(context.Background(), ports.PublishRequest{
		MessageID: "msg-1",
		Caption:   "text only post",
	})
	if !outcome.Success {
		t.Fatalf("expected success, got %s", outcome.ErrorMessage)
	}
	if !strings.HasSuffix(gotPath, "/page-1/feed") {
		t.Fatalf("expected feed endpoint, got %s", gotPath)
	}
	if gotMessage != "text only post" {
		t.Fatalf("wrong message param: %q", gotMessage)
	}
}

func TestFacebookFailureFoldsIntoOutcome(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"token expired"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	fb := NewFacebook(FacebookConfig{BaseURL: server.URL, PageID: "page-1", AccessToken: "tok"}, server.Client(), nopAudit{})
	outcome := fb.Publish(context.Background(), ports.PublishRequest{MessageID: "msg-1", Caption: "hi"})
	if outcome.Success {
		t.Fatal("expected failed outcome")
	}
	if !strings.Contains(outcome.ErrorMessage, "401") {
		t.Fatalf("error message should carry the status, got %q", outcome.ErrorMessage)
	}
}
