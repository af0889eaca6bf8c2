package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseContentBundleValid(t *testing.T) {
	raw := []byte(`{
		"facebook":  {"caption": "fb post"},
		"instagram": {"caption": "ig post"},
		"linkedin":  {"caption": "li post"},
		"whatsapp":  {"caption": "wa story"},
		"tiktok":    {"title": "tt clip", "hashtags": ["#go"]}
	}`)
	bundle, err := ParseContentBundle(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if bundle.Facebook.Caption != "fb post" {
		t.Fatalf("wrong facebook caption: %q", bundle.Facebook.Caption)
	}
	if bundle.TikTok.Title != "tt clip" || len(bundle.TikTok.Hashtags) != 1 {
		t.Fatalf("wrong tiktok section: %+v", bundle.TikTok)
	}
}

func TestParseContentBundleRejectsNonObject(t *testing.T) {
	for _, raw := range []string{`"plain text"`, `[1,2,3]`, `not json at all`} {
		if _, err := ParseContentBundle([]byte(raw)); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("input %q: expected ErrInvalidInput, got %v", raw, err)
		}
	}
}

func TestParseContentBundleReportsMissingSections(t *testing.T) {
	raw := []byte(`{"facebook": {"caption": "fb"}, "tiktok": {"title": "tt"}}`)
	_, err := ParseContentBundle(raw)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	for _, missing := range []string{"instagram", "linkedin", "whatsapp"} {
		if !strings.Contains(err.Error(), missing) {
			t.Errorf("error should name missing section %q: %v", missing, err)
		}
	}
}

func TestBundleCaptionPerPlatform(t *testing.T) {
	bundle := ContentBundle{
		Facebook: CaptionContent{Caption: "fb"},
		TikTok:   TikTokContent{Title: "tt"},
	}
	if got := bundle.Caption(PlatformFacebook); got != "fb" {
		t.Fatalf("facebook caption: %q", got)
	}
	if got := bundle.Caption(PlatformTikTok); got != "tt" {
		t.Fatalf("tiktok caption should be the title: %q", got)
	}
	if got := bundle.Caption(PlatformInstagram); got != "" {
		t.Fatalf("empty section should yield empty caption: %q", got)
	}
}
