package application

import (
	"context"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

type Config struct {
	ServiceName string
	Version     string
	LockTTL     time.Duration
}

// PublishInput triggers the fan-out for one message. Bundle, ImageRef and
// VideoRef are optional: when absent they are resolved from the stored
// message (the content is parsed as a bundle, the refs taken from the
// message's media columns).
type PublishInput struct {
	MessageID string
	Bundle    *domain.ContentBundle
	ImageRef  string
	VideoRef  string
}

// VideoInput triggers the async-generation path. Provider selects the
// generator by name; empty means the first configured one.
type VideoInput struct {
	MessageID string
	Prompt    string
	Provider  string
}

// ContainerStatusClient is the read-only container diagnostic exposed by
// the Instagram adapter.
type ContainerStatusClient interface {
	ContainerStatus(ctx context.Context, containerID string) (ports.ContainerStatus, error)
}

type Service struct {
	cfg Config

	messages     ports.MessageRepository
	publications ports.PublicationRepository
	locks        ports.PublishLockStore
	publishers   []ports.PlatformPublisher
	generators   []ports.VideoGenerator
	containers   ContainerStatusClient
	files        ports.FileStore
	audit        ports.AuditLogger
	startedAt    time.Time
	nowFn        func() time.Time
}

type Dependencies struct {
	Config Config

	Messages     ports.MessageRepository
	Publications ports.PublicationRepository
	Locks        ports.PublishLockStore
	Publishers   []ports.PlatformPublisher
	Generators   []ports.VideoGenerator
	Containers   ContainerStatusClient
	Files        ports.FileStore
	Audit        ports.AuditLogger
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M31-Publication-Service"
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	now := time.Now().UTC()
	return &Service{
		cfg:          cfg,
		messages:     deps.Messages,
		publications: deps.Publications,
		locks:        deps.Locks,
		publishers:   deps.Publishers,
		generators:   deps.Generators,
		containers:   deps.Containers,
		files:        deps.Files,
		audit:        deps.Audit,
		startedAt:    now,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// Status reports identity and uptime for the health surface.
func (s *Service) Status() (name, version string, uptime time.Duration) {
	return s.cfg.ServiceName, s.cfg.Version, time.Since(s.startedAt)
}
