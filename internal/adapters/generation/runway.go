package generation

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/retry"
)

type RunwayConfig struct {
	BaseURL      string
	APIKey       string
	Model        string
	Ratio        string
	Duration     int
	PollInterval time.Duration
	PollAttempts int
}

// Runway submits a text-to-video task, watches it to a terminal state and
// stores the downloaded artifact locally. Generation jobs fail hard on
// poll exhaustion.
type Runway struct {
	cfg    RunwayConfig
	client *http.Client
	files  ports.FileStore
	audit  ports.AuditLogger
	nowFn  func() time.Time
}

func NewRunway(cfg RunwayConfig, client *http.Client, files ports.FileStore, audit ports.AuditLogger) *Runway {
	if cfg.Model == "" {
		cfg.Model = "gen3a_turbo"
	}
	if cfg.Ratio == "" {
		cfg.Ratio = "768:1280"
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
	return &Runway{cfg: cfg, client: client, files: files, audit: audit, nowFn: time.Now}
}

func (r *Runway) Provider() string { return "runway" }

func (r *Runway) Generate(ctx context.Context, messageID, prompt string) (string, error) {
	jobID, err := r.submit(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("submit generation job: %w", err)
	}
	r.audit.Info(messageID, "RUNWAY", "generation job submitted", map[string]string{"job_id": jobID})

	job, err := r.waitForJob(ctx, jobID)
	if err != nil {
		r.audit.Error(messageID, "RUNWAY", "generation job did not complete", err.Error())
		return "", err
	}
	if job.Status == domain.JobStatusFailed {
		r.audit.Error(messageID, "RUNWAY", "generation job failed", job.Failure)
		return "", fmt.Errorf("generation job %s failed: %s", jobID, job.Failure)
	}
	if len(job.Output) == 0 {
		return "", fmt.Errorf("generation job %s succeeded without output", jobID)
	}

	data, err := downloadArtifact(ctx, r.client, job.Output[0])
	if err != nil {
		return "", err
	}
	filename := artifactFilename("runway", jobID, r.nowFn())
	if err := r.files.WriteVideo(filename, data); err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}
	r.audit.Success(messageID, "RUNWAY", "video artifact stored", map[string]any{
		"job_id":   jobID,
		"filename": filename,
		"bytes":    len(data),
	})
	return filename, nil
}

func (r *Runway) submit(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"promptText": prompt,
		"ratio":      r.cfg.Ratio,
		"audio":      false,
		"duration":   r.cfg.Duration,
		"model":      r.cfg.Model,
	}
	var result struct {
		ID string `json:"id"`
	}
	if err := postTask(ctx, r.client, r.cfg.BaseURL+"/v1/text_to_video", r.cfg.APIKey, body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("%w: submit response missing task id", domain.ErrInvalidInput)
	}
	return result.ID, nil
}

func (r *Runway) waitForJob(ctx context.Context, jobID string) (domain.GenerationJob, error) {
	cfg := retry.PollConfig{
		Interval:    r.cfg.PollInterval,
		MaxAttempts: r.cfg.PollAttempts,
		OnTimeout:   retry.FailOnTimeout,
	}
	return retry.Poll(ctx, cfg, func(ctx context.Context) (domain.GenerationJob, error) {
		var task taskResponse
		if err := getTask(ctx, r.client, r.cfg.BaseURL+"/v1/tasks/"+jobID, r.cfg.APIKey, &task); err != nil {
			return domain.GenerationJob{}, fmt.Errorf("fetch task %s: %w", jobID, err)
		}
		return task.job(), nil
	}, domain.GenerationJob.Terminal)
}
