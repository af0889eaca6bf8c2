package ports

import (
	"context"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
)

// PublishRequest carries everything one destination adapter may need for a
// single message. Adapters read the fields relevant to their protocol and
// ignore the rest.
type PublishRequest struct {
	MessageID string
	Caption   string

	// Image is resolved by the orchestrator when the message has one:
	// PublicURL for URL-based destinations, LocalPath for binary upload.
	Image *domain.MediaRef

	// ImageRef is the opaque story media reference; the filename is
	// extracted from its last path segment.
	ImageRef string

	// Video is the local artifact for video destinations.
	Video *domain.MediaRef

	Title    string
	Hashtags []string
}

// PlatformPublisher is one destination's publishing protocol. Publish never
// returns an error: every failure, including validation, folds into a
// failed PlatformOutcome so the fan-out always yields one outcome per
// destination.
type PlatformPublisher interface {
	Platform() string
	Publish(ctx context.Context, req PublishRequest) domain.PlatformOutcome
}

// VideoGenerator runs an async text-to-video job at an external provider,
// downloads the artifact into the local video store and returns its
// filename.
type VideoGenerator interface {
	Provider() string
	Generate(ctx context.Context, messageID, prompt string) (string, error)
}

// ContainerStatus is the read-only Instagram container diagnostic.
type ContainerStatus struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	StatusCode string `json:"status_code"`
}
