package platforms

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

type LinkedInConfig struct {
	BaseURL     string
	PersonURN   string
	AccessToken string
}

// LinkedIn uploads by content, not URL: register an upload slot, PUT the
// binary to the returned upload URL, then publish a UGC post referencing
// the asset. Any step failure aborts the chain; no retry.
type LinkedIn struct {
	cfg    LinkedInConfig
	client *http.Client
	files  ports.FileStore
	audit  ports.AuditLogger
}

func NewLinkedIn(cfg LinkedInConfig, client *http.Client, files ports.FileStore, audit ports.AuditLogger) *LinkedIn {
	return &LinkedIn{cfg: cfg, client: client, files: files, audit: audit}
}

func (l *LinkedIn) Platform() string { return domain.PlatformLinkedIn }

func (l *LinkedIn) author() string { return "urn:li:person:" + l.cfg.PersonURN }

func (l *LinkedIn) Publish(ctx context.Context, req ports.PublishRequest) domain.PlatformOutcome {
	l.audit.Info(req.MessageID, "LINKEDIN", "starting publication", map[string]any{
		"has_image": req.Image != nil,
	})

	var (
		postID string
		err    error
	)
	if req.Image != nil && req.Image.LocalPath != "" {
		postID, err = l.publishImage(ctx, req.Caption, req.Image.LocalPath)
	} else {
		postID, err = l.publishText(ctx, req.Caption)
	}
	if err != nil {
		l.audit.Error(req.MessageID, "LINKEDIN", "publication failed", err.Error())
		return domain.FailedOutcome(domain.PlatformLinkedIn, err)
	}

	outcome := domain.PlatformOutcome{
		Platform: domain.PlatformLinkedIn,
		Success:  true,
		PostID:   postID,
		Link:     "https://linkedin.com/feed/update/" + postID,
	}
	l.audit.Success(req.MessageID, "LINKEDIN", "publication succeeded", map[string]any{
		"post_id": postID,
	})
	return outcome
}

type registeredUpload struct {
	AssetID   string
	UploadURL string
}

func (l *LinkedIn) publishImage(ctx context.Context, caption, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: image file %s", domain.ErrNotFound, localPath)
		}
		return "", fmt.Errorf("read image: %w", err)
	}

	upload, err := l.registerUpload(ctx)
	if err != nil {
		return "", err
	}
	if err := l.uploadBinary(ctx, upload.UploadURL, filepath.Base(localPath), data); err != nil {
		return "", err
	}
	return l.publishPost(ctx, caption, upload.AssetID)
}

func (l *LinkedIn) publishText(ctx context.Context, caption string) (string, error) {
	return l.publishPost(ctx, caption, "")
}

func (l *LinkedIn) registerUpload(ctx context.Context) (registeredUpload, error) {
	body := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{"urn:li:digitalmediaRecipe:feedshare-image"},
			"owner":   l.author(),
			"serviceRelationships": []map[string]string{{
				"relationshipType": "OWNER",
				"identifier":       "urn:li:userGeneratedContent",
			}},
		},
	}
	var result struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string            `json:"uploadUrl"`
				Headers   map[string]string `json:"headers"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	endpoint := l.cfg.BaseURL + "/assets?action=registerUpload"
	if err := postJSON(ctx, l.client, endpoint, bearer(l.cfg.AccessToken), body, &result); err != nil {
		return registeredUpload{}, fmt.Errorf("register upload: %w", err)
	}

	upload := registeredUpload{AssetID: result.Value.Asset}
	for _, mech := range result.Value.UploadMechanism {
		if mech.UploadURL != "" {
			upload.UploadURL = mech.UploadURL
			break
		}
	}
	if upload.AssetID == "" || upload.UploadURL == "" {
		return registeredUpload{}, fmt.Errorf("%w: register response missing asset or upload url", domain.ErrInvalidInput)
	}
	return upload, nil
}

func (l *LinkedIn) uploadBinary(ctx context.Context, uploadURL, filename string, data []byte) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+l.cfg.AccessToken)
	if err := do(l.client, req, nil); err != nil {
		return fmt.Errorf("upload binary: %w", err)
	}
	return nil
}

func (l *LinkedIn) publishPost(ctx context.Context, caption, assetID string) (string, error) {
	shareContent := map[string]any{
		"shareCommentary":    map[string]string{"text": caption},
		"shareMediaCategory": "NONE",
	}
	if assetID != "" {
		shareContent["shareMediaCategory"] = "IMAGE"
		shareContent["media"] = []map[string]any{{
			"status": "READY",
			"media":  assetID,
		}}
	}
	body := map[string]any{
		"author":         l.author(),
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, l.client, l.cfg.BaseURL+"/ugcPosts", bearer(l.cfg.AccessToken), body, &result); err != nil {
		return "", fmt.Errorf("publish post: %w", err)
	}
	return result.ID, nil
}
