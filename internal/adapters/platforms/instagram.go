package platforms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/retry"
)

type InstagramConfig struct {
	BaseURL         string
	UserID          string
	AccessToken     string
	PublishAttempts int
	PublishDelay    time.Duration
}

// Instagram publishes through the Graph API container flow: create a
// media container, then publish it. The publish step is the one retried
// call in the whole pipeline; container status stays a separate read-only
// diagnostic and never gates publishing.
type Instagram struct {
	cfg    InstagramConfig
	client *http.Client
	audit  ports.AuditLogger
}

func NewInstagram(cfg InstagramConfig, client *http.Client, audit ports.AuditLogger) *Instagram {
	if cfg.PublishAttempts <= 0 {
		cfg.PublishAttempts = 3
	}
	if cfg.PublishDelay <= 0 {
		cfg.PublishDelay = 2 * time.Second
	}
	return &Instagram{cfg: cfg, client: client, audit: audit}
}

func (i *Instagram) Platform() string { return domain.PlatformInstagram }

func (i *Instagram) Publish(ctx context.Context, req ports.PublishRequest) domain.PlatformOutcome {
	if req.Image == nil || req.Image.PublicURL == "" {
		i.audit.Warning(req.MessageID, "INSTAGRAM", "cannot publish without image", nil)
		return domain.FailedOutcome(domain.PlatformInstagram,
			fmt.Errorf("%w: instagram requires an image", domain.ErrMissingMedia))
	}

	i.audit.Info(req.MessageID, "INSTAGRAM", "creating media container", map[string]any{
		"image_url": req.Image.PublicURL,
	})
	containerID, err := i.createContainer(ctx, req.Image.PublicURL, req.Caption)
	if err != nil {
		i.audit.Error(req.MessageID, "INSTAGRAM", "container creation failed", err.Error())
		return domain.FailedOutcome(domain.PlatformInstagram, err)
	}

	var postID string
	err = retry.Do(ctx, retry.Config{MaxAttempts: i.cfg.PublishAttempts, Delay: i.cfg.PublishDelay}, func(ctx context.Context) error {
		var publishErr error
		postID, publishErr = i.publishContainer(ctx, containerID)
		return publishErr
	})
	if err != nil {
		i.audit.Error(req.MessageID, "INSTAGRAM", "publish failed after retries", err.Error())
		return domain.FailedOutcome(domain.PlatformInstagram, err)
	}

	outcome := domain.PlatformOutcome{
		Platform: domain.PlatformInstagram,
		Success:  true,
		PostID:   postID,
		Link:     "https://instagram.com/p/" + postID,
	}
	i.audit.Success(req.MessageID, "INSTAGRAM", "publication succeeded", map[string]any{
		"post_id":      postID,
		"container_id": containerID,
	})
	return outcome
}

func (i *Instagram) createContainer(ctx context.Context, imageURL, caption string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/media?access_token=%s", i.cfg.BaseURL, i.cfg.UserID, url.QueryEscape(i.cfg.AccessToken))
	var result struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, i.client, endpoint, nil, map[string]string{
		"image_url": imageURL,
		"caption":   caption,
	}, &result); err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("%w: container response carried no id", domain.ErrInvalidInput)
	}
	return result.ID, nil
}

func (i *Instagram) publishContainer(ctx context.Context, containerID string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/media_publish?access_token=%s", i.cfg.BaseURL, i.cfg.UserID, url.QueryEscape(i.cfg.AccessToken))
	var result struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, i.client, endpoint, nil, map[string]string{
		"creation_id": containerID,
	}, &result); err != nil {
		return "", fmt.Errorf("publish container: %w", err)
	}
	return result.ID, nil
}

// ContainerStatus reads the processing state of a media container.
func (i *Instagram) ContainerStatus(ctx context.Context, containerID string) (ports.ContainerStatus, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=status_code,status&access_token=%s",
		i.cfg.BaseURL, url.PathEscape(containerID), url.QueryEscape(i.cfg.AccessToken))
	var result ports.ContainerStatus
	if err := getJSON(ctx, i.client, endpoint, nil, &result); err != nil {
		return ports.ContainerStatus{}, fmt.Errorf("container status: %w", err)
	}
	return result, nil
}
