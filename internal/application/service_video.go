package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

// GenerateAndPublishVideo runs the async-generation path: generate a
// video from the prompt, store it on the message and publish it to
// TikTok. The other destinations are not involved.
func (s *Service) GenerateAndPublishVideo(ctx context.Context, in VideoInput) (domain.PlatformOutcome, error) {
	in.MessageID = strings.TrimSpace(in.MessageID)
	in.Prompt = strings.TrimSpace(in.Prompt)
	if in.MessageID == "" {
		return domain.PlatformOutcome{}, fmt.Errorf("%w: message id is required", domain.ErrInvalidInput)
	}
	if in.Prompt == "" {
		return domain.PlatformOutcome{}, fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}

	generator, err := s.pickGenerator(in.Provider)
	if err != nil {
		return domain.PlatformOutcome{}, err
	}
	tiktok, err := s.pickPublisher(domain.PlatformTikTok)
	if err != nil {
		return domain.PlatformOutcome{}, err
	}

	msg, err := s.messages.GetByID(ctx, in.MessageID)
	if err != nil {
		return domain.PlatformOutcome{}, err
	}

	if err := s.messages.UpdateVideoState(ctx, msg.MessageID, domain.VideoStateGenerating); err != nil {
		return domain.PlatformOutcome{}, fmt.Errorf("mark video generating: %w", err)
	}

	filename, err := generator.Generate(ctx, msg.MessageID, in.Prompt)
	if err != nil {
		if stateErr := s.messages.UpdateVideoState(ctx, msg.MessageID, domain.VideoStateError); stateErr != nil {
			slog.Error("video state update failed",
				"message_id", msg.MessageID, "state", domain.VideoStateError, "error", stateErr)
		}
		return domain.PlatformOutcome{}, fmt.Errorf("generate video: %w", err)
	}
	if err := s.messages.SetGeneratedVideo(ctx, msg.MessageID, filename); err != nil {
		slog.Error("generated video persist failed",
			"message_id", msg.MessageID, "filename", filename, "error", err)
	}

	video := &domain.MediaRef{
		LocalPath: s.files.VideoPath(filename),
		PublicURL: s.files.VideoURL(filename),
	}
	title := in.Prompt
	if bundle, bundleErr := domain.ParseContentBundle([]byte(msg.Content)); bundleErr == nil && bundle.TikTok.Title != "" {
		title = bundle.TikTok.Title
	}

	outcome := s.runPublisher(ctx, tiktok, ports.PublishRequest{
		MessageID: msg.MessageID,
		Caption:   title,
		Video:     video,
		Title:     title,
	})

	now := s.nowFn()
	state := domain.PublicationStatePublished
	if !outcome.Success {
		state = domain.PublicationStateError
	}
	row := domain.Publication{
		Title:     title,
		Platform:  outcome.Platform,
		PostID:    outcome.PostID,
		Caption:   title,
		VideoURL:  video.PublicURL,
		Link:      outcome.Link,
		MessageID: msg.MessageID,
		ChatID:    msg.ChatID,
		State:     state,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.publications.Create(ctx, row); err != nil {
		slog.Error("publication record insert failed",
			"message_id", msg.MessageID, "platform", outcome.Platform, "error", err)
		s.audit.Error(msg.MessageID, "TIKTOK", "publication record insert failed", err.Error())
	}
	return outcome, nil
}

func (s *Service) pickGenerator(provider string) (ports.VideoGenerator, error) {
	if len(s.generators) == 0 {
		return nil, fmt.Errorf("%w: no video generator configured", domain.ErrInvalidInput)
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return s.generators[0], nil
	}
	for _, g := range s.generators {
		if g.Provider() == provider {
			return g, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown video provider %q", domain.ErrInvalidInput, provider)
}

func (s *Service) pickPublisher(platform string) (ports.PlatformPublisher, error) {
	for _, p := range s.publishers {
		if p.Platform() == platform {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no publisher configured for %s", domain.ErrInvalidInput, platform)
}
