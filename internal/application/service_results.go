package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
)

// persistOutcomes writes one publication record per outcome. A failed
// insert is logged and skipped so a storage hiccup for one record cannot
// erase the already-computed outcomes of the other destinations.
func (s *Service) persistOutcomes(ctx context.Context, msg domain.Message, bundle domain.ContentBundle, outcomes []domain.PlatformOutcome, image, video *domain.MediaRef) {
	now := s.nowFn()
	for _, outcome := range outcomes {
		caption := bundle.Caption(outcome.Platform)
		if caption == "" {
			caption = fmt.Sprintf("Content for %s", outcome.Platform)
		}

		state := domain.PublicationStatePublished
		if !outcome.Success {
			state = domain.PublicationStateError
		}
		row := domain.Publication{
			Title:     bundle.TikTok.Title,
			Platform:  outcome.Platform,
			PostID:    outcome.PostID,
			Caption:   caption,
			Link:      outcome.Link,
			MessageID: msg.MessageID,
			ChatID:    msg.ChatID,
			State:     state,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if image != nil {
			row.ImageURL = image.PublicURL
		}
		if video != nil {
			row.VideoURL = video.PublicURL
		}

		if err := s.publications.Create(ctx, row); err != nil {
			slog.Error("publication record insert failed",
				"message_id", msg.MessageID, "platform", outcome.Platform, "error", err)
			s.audit.Error(msg.MessageID, strings.ToUpper(outcome.Platform), "publication record insert failed", err.Error())
			continue
		}
	}
}
