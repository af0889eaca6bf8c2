package ports

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
)

type MessageRepository interface {
	GetByID(ctx context.Context, messageID string) (domain.Message, error)
	UpdatePublicationState(ctx context.Context, messageID, state string) error
	UpdateVideoState(ctx context.Context, messageID, state string) error
	SetGeneratedVideo(ctx context.Context, messageID, filename string) error
}

type PublicationRepository interface {
	Create(ctx context.Context, row domain.Publication) error
	ListByChatID(ctx context.Context, chatID string) ([]domain.Publication, error)
}

// PublishLockStore serializes publish runs per message so two concurrent
// triggers cannot race the Pending -> Publishing transition.
type PublishLockStore interface {
	Acquire(ctx context.Context, messageID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, messageID string) error
}
