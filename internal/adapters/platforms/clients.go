// Package platforms contains the outbound adapters for the five publishing
// destinations. Each adapter implements ports.PlatformPublisher as an
// explicit step sequence; retry and polling bounds are injected per
// destination instead of being re-implemented inline.
package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

// Clients is the immutable destination client table, built once at startup
// and handed to the orchestrator by reference.
type Clients struct {
	Facebook  *Facebook
	Instagram *Instagram
	LinkedIn  *LinkedIn
	WhatsApp  *WhatsApp
	TikTok    *TikTok
}

// Ordered returns the publishers in the fixed fan-out order.
func (c *Clients) Ordered() []ports.PlatformPublisher {
	return []ports.PlatformPublisher{c.Facebook, c.Instagram, c.LinkedIn, c.WhatsApp, c.TikTok}
}

type Config struct {
	Facebook  FacebookConfig
	Instagram InstagramConfig
	LinkedIn  LinkedInConfig
	WhatsApp  WhatsAppConfig
	TikTok    TikTokConfig
}

func NewClients(cfg Config, httpClient *http.Client, files ports.FileStore, audit ports.AuditLogger) *Clients {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Clients{
		Facebook:  NewFacebook(cfg.Facebook, httpClient, audit),
		Instagram: NewInstagram(cfg.Instagram, httpClient, audit),
		LinkedIn:  NewLinkedIn(cfg.LinkedIn, httpClient, files, audit),
		WhatsApp:  NewWhatsApp(cfg.WhatsApp, httpClient, files, audit),
		TikTok:    NewTikTok(cfg.TikTok, httpClient, files, audit),
	}
}

// postJSON sends a JSON body and decodes a JSON response into out. Non-2xx
// statuses come back as errors carrying the response body.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return do(client, req, out)
}

func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return do(client, req, out)
}

func do(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError is a non-2xx destination response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// filenameFromRef extracts the segment after the final slash of a media
// reference. An empty segment is a validation failure, checked before any
// network call is attempted.
func filenameFromRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	name := ref
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		name = ref[idx+1:]
	}
	if name == "" {
		return "", fmt.Errorf("%w: no filename in media reference %q", domain.ErrInvalidInput, ref)
	}
	return name, nil
}

// imageContentType maps a filename extension to the multipart content type
// used for story media uploads.
func imageContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
