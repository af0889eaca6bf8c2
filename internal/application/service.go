package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

// PublishMessage fans one message out to every configured destination in
// order. Each adapter runs to completion before the next starts; an
// adapter failure, including a panic, folds into its own outcome and never
// stops the remaining destinations. The returned slice always has one
// entry per configured publisher.
func (s *Service) PublishMessage(ctx context.Context, in PublishInput) ([]domain.PlatformOutcome, error) {
	in.MessageID = strings.TrimSpace(in.MessageID)
	if in.MessageID == "" {
		return nil, fmt.Errorf("%w: message id is required", domain.ErrInvalidInput)
	}

	acquired, err := s.locks.Acquire(ctx, in.MessageID, s.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire publish lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: message %s", domain.ErrPublishInProgress, in.MessageID)
	}
	defer func() {
		if releaseErr := s.locks.Release(context.WithoutCancel(ctx), in.MessageID); releaseErr != nil {
			slog.Warn("publish lock release failed", "message_id", in.MessageID, "error", releaseErr)
		}
	}()

	msg, err := s.messages.GetByID(ctx, in.MessageID)
	if err != nil {
		return nil, err
	}

	bundle, err := s.resolveBundle(in, msg)
	if err != nil {
		return nil, err
	}
	if in.ImageRef == "" {
		in.ImageRef = msg.ImageFile
	}
	if in.VideoRef == "" {
		in.VideoRef = msg.GeneratedVideo
	}

	if err := s.messages.UpdatePublicationState(ctx, msg.MessageID, domain.PublicationStatePublishing); err != nil {
		return nil, fmt.Errorf("mark message publishing: %w", err)
	}
	s.audit.Info(msg.MessageID, "ORCHESTRATOR", "publication run started", map[string]any{
		"destinations": len(s.publishers),
		"image_ref":    in.ImageRef,
		"video_ref":    in.VideoRef,
	})

	image := s.resolveImage(msg.MessageID, in.ImageRef)
	video := s.resolveVideo(in.VideoRef)

	outcomes := make([]domain.PlatformOutcome, 0, len(s.publishers))
	for _, publisher := range s.publishers {
		req := ports.PublishRequest{
			MessageID: msg.MessageID,
			Caption:   bundle.Caption(publisher.Platform()),
			Image:     image,
			ImageRef:  in.ImageRef,
			Video:     video,
			Title:     bundle.TikTok.Title,
			Hashtags:  bundle.TikTok.Hashtags,
		}
		outcomes = append(outcomes, s.runPublisher(ctx, publisher, req))
	}

	s.persistOutcomes(ctx, msg, bundle, outcomes, image, video)

	state := domain.PublicationStatePublished
	for _, outcome := range outcomes {
		if !outcome.Success {
			state = domain.PublicationStateError
			break
		}
	}
	if err := s.messages.UpdatePublicationState(ctx, msg.MessageID, state); err != nil {
		slog.Error("final publication state update failed",
			"message_id", msg.MessageID, "state", state, "error", err)
	}
	s.audit.Info(msg.MessageID, "ORCHESTRATOR", "publication run finished", map[string]any{
		"state":    state,
		"outcomes": outcomes,
	})
	return outcomes, nil
}

// GetHistory lists the active publication records for a chat, newest
// first.
func (s *Service) GetHistory(ctx context.Context, chatID string) ([]domain.Publication, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, fmt.Errorf("%w: chat id is required", domain.ErrInvalidInput)
	}
	return s.publications.ListByChatID(ctx, chatID)
}

// InstagramContainerStatus is a read-only diagnostic passthrough.
func (s *Service) InstagramContainerStatus(ctx context.Context, containerID string) (ports.ContainerStatus, error) {
	containerID = strings.TrimSpace(containerID)
	if containerID == "" {
		return ports.ContainerStatus{}, fmt.Errorf("%w: container id is required", domain.ErrInvalidInput)
	}
	if s.containers == nil {
		return ports.ContainerStatus{}, fmt.Errorf("%w: container status client not configured", domain.ErrNotFound)
	}
	return s.containers.ContainerStatus(ctx, containerID)
}

// runPublisher isolates one destination. A panic inside an adapter is a
// bug in that adapter, not a reason to skip the remaining destinations.
func (s *Service) runPublisher(ctx context.Context, publisher ports.PlatformPublisher, req ports.PublishRequest) (outcome domain.PlatformOutcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("publisher panicked: %v", r)
			slog.Error("publisher panic recovered",
				"message_id", req.MessageID, "platform", publisher.Platform(), "panic", r)
			outcome = domain.FailedOutcome(publisher.Platform(), err)
		}
	}()
	return publisher.Publish(ctx, req)
}

func (s *Service) resolveBundle(in PublishInput, msg domain.Message) (domain.ContentBundle, error) {
	if in.Bundle != nil {
		return *in.Bundle, nil
	}
	bundle, err := domain.ParseContentBundle([]byte(msg.Content))
	if err != nil {
		return domain.ContentBundle{}, fmt.Errorf("message %s: %w", msg.MessageID, err)
	}
	return bundle, nil
}

// resolveImage turns a media reference into a local path plus public URL.
// A dangling reference degrades to no image; destinations that require one
// produce their own failed outcomes.
func (s *Service) resolveImage(messageID, imageRef string) *domain.MediaRef {
	if imageRef == "" {
		return nil
	}
	filename := refFilename(imageRef)
	if filename == "" || !s.files.ImageExists(filename) {
		s.audit.Warning(messageID, "ORCHESTRATOR", "image reference does not resolve to a stored file", map[string]string{
			"image_ref": imageRef,
		})
		return nil
	}
	return &domain.MediaRef{
		LocalPath: s.files.ImagePath(filename),
		PublicURL: s.files.ImageURL(filename),
	}
}

func (s *Service) resolveVideo(videoRef string) *domain.MediaRef {
	if videoRef == "" {
		return nil
	}
	filename := refFilename(videoRef)
	if filename == "" || !s.files.VideoExists(filename) {
		return nil
	}
	return &domain.MediaRef{
		LocalPath: s.files.VideoPath(filename),
		PublicURL: s.files.VideoURL(filename),
	}
}

// refFilename takes the segment after the last slash of a media
// reference, so both bare filenames and scheme-prefixed refs resolve.
func refFilename(ref string) string {
	ref = strings.TrimSpace(ref)
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}
