package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

type FacebookConfig struct {
	BaseURL     string
	PageID      string
	AccessToken string
}

// Facebook is the simplest destination: one POST, image or text variant
// chosen by the presence of a fetchable image URL. No retry.
type Facebook struct {
	cfg    FacebookConfig
	client *http.Client
	audit  ports.AuditLogger
}

func NewFacebook(cfg FacebookConfig, client *http.Client, audit ports.AuditLogger) *Facebook {
	return &Facebook{cfg: cfg, client: client, audit: audit}
}

func (f *Facebook) Platform() string { return domain.PlatformFacebook }

func (f *Facebook) Publish(ctx context.Context, req ports.PublishRequest) domain.PlatformOutcome {
	f.audit.Info(req.MessageID, "FACEBOOK", "starting publication", map[string]any{
		"has_image": req.Image != nil && req.Image.PublicURL != "",
	})

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	var err error
	if req.Image != nil && req.Image.PublicURL != "" {
		endpoint := fmt.Sprintf("%s/%s/photos?access_token=%s", f.cfg.BaseURL, f.cfg.PageID, url.QueryEscape(f.cfg.AccessToken))
		err = postJSON(ctx, f.client, endpoint, nil, map[string]string{
			"url":     req.Image.PublicURL,
			"caption": req.Caption,
		}, &result)
	} else {
		endpoint := fmt.Sprintf("%s/%s/feed?message=%s&access_token=%s",
			f.cfg.BaseURL, f.cfg.PageID, url.QueryEscape(req.Caption), url.QueryEscape(f.cfg.AccessToken))
		err = postJSON(ctx, f.client, endpoint, nil, map[string]string{}, &result)
	}
	if err != nil {
		f.audit.Error(req.MessageID, "FACEBOOK", "publication failed", err.Error())
		return domain.FailedOutcome(domain.PlatformFacebook, err)
	}

	postID := result.ID
	if postID == "" {
		postID = result.PostID
	}
	outcome := domain.PlatformOutcome{
		Platform: domain.PlatformFacebook,
		Success:  true,
		PostID:   postID,
		Link:     "https://facebook.com/" + postID,
	}
	f.audit.Success(req.MessageID, "FACEBOOK", "publication succeeded", map[string]any{
		"post_id": outcome.PostID,
		"link":    outcome.Link,
	})
	return outcome
}
