package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

type WhatsAppConfig struct {
	BaseURL         string
	AccessToken     string
	ExcludeContacts []string
}

// WhatsApp sends a story as one multipart POST: caption field, the
// excluded-recipient list JSON-encoded, and an optional binary media part.
// Validation failures happen before any network call.
type WhatsApp struct {
	cfg    WhatsAppConfig
	client *http.Client
	files  ports.FileStore
	audit  ports.AuditLogger
}

func NewWhatsApp(cfg WhatsAppConfig, client *http.Client, files ports.FileStore, audit ports.AuditLogger) *WhatsApp {
	return &WhatsApp{cfg: cfg, client: client, files: files, audit: audit}
}

func (w *WhatsApp) Platform() string { return domain.PlatformWhatsApp }

func (w *WhatsApp) Publish(ctx context.Context, req ports.PublishRequest) domain.PlatformOutcome {
	w.audit.Info(req.MessageID, "WHATSAPP", "starting story publication", map[string]any{
		"has_media": req.ImageRef != "",
	})

	body, contentType, err := w.buildForm(req)
	if err != nil {
		w.audit.Error(req.MessageID, "WHATSAPP", "story rejected before send", err.Error())
		return domain.FailedOutcome(domain.PlatformWhatsApp, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.BaseURL+"/stories/send/media", body)
	if err != nil {
		return domain.FailedOutcome(domain.PlatformWhatsApp, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Bearer "+w.cfg.AccessToken)

	var result struct {
		ID string `json:"id"`
	}
	if err := do(w.client, httpReq, &result); err != nil {
		w.audit.Error(req.MessageID, "WHATSAPP", "story send failed", err.Error())
		return domain.FailedOutcome(domain.PlatformWhatsApp, err)
	}

	postID := result.ID
	if postID == "" {
		postID = "story"
	}
	outcome := domain.PlatformOutcome{
		Platform: domain.PlatformWhatsApp,
		Success:  true,
		PostID:   postID,
		Link:     "whatsapp story published",
	}
	w.audit.Success(req.MessageID, "WHATSAPP", "story published", map[string]any{"post_id": postID})
	return outcome
}

func (w *WhatsApp) buildForm(req ports.PublishRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("caption", req.Caption); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	excluded, err := json.Marshal(w.cfg.ExcludeContacts)
	if err != nil {
		return nil, "", fmt.Errorf("encode exclude_contacts: %w", err)
	}
	if err := writer.WriteField("exclude_contacts", string(excluded)); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}

	if req.ImageRef != "" {
		filename, err := filenameFromRef(req.ImageRef)
		if err != nil {
			return nil, "", err
		}
		localPath := w.files.ImagePath(filename)
		data, err := os.ReadFile(localPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, "", fmt.Errorf("%w: media file %s", domain.ErrNotFound, filename)
			}
			return nil, "", fmt.Errorf("read media: %w", err)
		}

		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename=%q`, filename))
		header.Set("Content-Type", imageContentType(filename))
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("build form: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", fmt.Errorf("build form: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("build form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
