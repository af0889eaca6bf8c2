package unit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

const bundleJSON = `{
	"facebook":  {"caption": "fb post"},
	"instagram": {"caption": "ig post"},
	"linkedin":  {"caption": "li post"},
	"whatsapp":  {"caption": "wa story"},
	"tiktok":    {"title": "tt clip"}
}`

type fakeMessages struct {
	rows        map[string]domain.Message
	stateLog    []string
	videoStates []string
}

func (f *fakeMessages) GetByID(_ context.Context, id string) (domain.Message, error) {
	row, ok := f.rows[id]
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: message %s", domain.ErrNotFound, id)
	}
	return row, nil
}

func (f *fakeMessages) UpdatePublicationState(_ context.Context, id, state string) error {
	row := f.rows[id]
	row.PublicationState = state
	f.rows[id] = row
	f.stateLog = append(f.stateLog, state)
	return nil
}

func (f *fakeMessages) UpdateVideoState(_ context.Context, id, state string) error {
	row := f.rows[id]
	row.VideoState = state
	f.rows[id] = row
	f.videoStates = append(f.videoStates, state)
	return nil
}

func (f *fakeMessages) SetGeneratedVideo(_ context.Context, id, filename string) error {
	row := f.rows[id]
	row.GeneratedVideo = filename
	row.VideoState = domain.VideoStateCompleted
	f.rows[id] = row
	return nil
}

type fakePublications struct {
	rows       []domain.Publication
	failCreate map[string]error
}

func (f *fakePublications) Create(_ context.Context, row domain.Publication) error {
	if err, ok := f.failCreate[row.Platform]; ok {
		return err
	}
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakePublications) ListByChatID(_ context.Context, chatID string) ([]domain.Publication, error) {
	out := make([]domain.Publication, 0)
	for _, row := range f.rows {
		if row.ChatID == chatID {
			out = append(out, row)
		}
	}
	return out, nil
}

type fakeLocks struct {
	held map[string]bool
}

func (f *fakeLocks) Acquire(_ context.Context, id string, _ time.Duration) (bool, error) {
	if f.held[id] {
		return false, nil
	}
	f.held[id] = true
	return true, nil
}

func (f *fakeLocks) Release(_ context.Context, id string) error {
	delete(f.held, id)
	return nil
}

type fakeFiles struct {
	images map[string]bool
	videos map[string]bool
}

func (f *fakeFiles) ImageExists(name string) bool { return f.images[name] }
func (f *fakeFiles) ImagePath(name string) string { return "/media/images/" + name }
func (f *fakeFiles) ImageURL(name string) string  { return "http://host/api/images/" + name }
func (f *fakeFiles) VideoExists(name string) bool { return f.videos[name] }
func (f *fakeFiles) VideoPath(name string) string { return "/media/videos/" + name }
func (f *fakeFiles) VideoURL(name string) string  { return "http://host/api/videos/" + name }
func (f *fakeFiles) WriteVideo(name string, _ []byte) error {
	f.videos[name] = true
	return nil
}
func (f *fakeFiles) CopyVideo(_, dst string) error {
	f.videos[dst] = true
	return nil
}

type fakeAudit struct{}

func (fakeAudit) Info(string, string, string, any)    {}
func (fakeAudit) Success(string, string, string, any) {}
func (fakeAudit) Warning(string, string, string, any) {}
func (fakeAudit) Error(string, string, string, any)   {}

type fakePublisher struct {
	platform string
	publish  func(ports.PublishRequest) domain.PlatformOutcome
	calls    int
}

func (f *fakePublisher) Platform() string { return f.platform }

func (f *fakePublisher) Publish(_ context.Context, req ports.PublishRequest) domain.PlatformOutcome {
	f.calls++
	return f.publish(req)
}

func okPublisher(platform string) *fakePublisher {
	return &fakePublisher{platform: platform, publish: func(ports.PublishRequest) domain.PlatformOutcome {
		return domain.PlatformOutcome{Platform: platform, Success: true, PostID: platform + "-1"}
	}}
}

func failPublisher(platform, reason string) *fakePublisher {
	return &fakePublisher{platform: platform, publish: func(ports.PublishRequest) domain.PlatformOutcome {
		return domain.FailedOutcome(platform, errors.New(reason))
	}}
}

func panicPublisher(platform string) *fakePublisher {
	return &fakePublisher{platform: platform, publish: func(ports.PublishRequest) domain.PlatformOutcome {
		panic("adapter bug")
	}}
}

type fixture struct {
	svc      *application.Service
	messages *fakeMessages
	pubs     *fakePublications
	locks    *fakeLocks
	files    *fakeFiles
}

func newFixture(publishers []ports.PlatformPublisher, generators []ports.VideoGenerator) *fixture {
	messages := &fakeMessages{rows: map[string]domain.Message{
		"msg-1": {
			MessageID:        "msg-1",
			ChatID:           "chat-1",
			Content:          bundleJSON,
			ImageFile:        "dummy:///cat.png",
			PublicationState: domain.PublicationStatePending,
		},
	}}
	pubs := &fakePublications{failCreate: map[string]error{}}
	locks := &fakeLocks{held: map[string]bool{}}
	files := &fakeFiles{
		images: map[string]bool{"cat.png": true},
		videos: map[string]bool{},
	}
	svc := application.NewService(application.Dependencies{
		Config:       application.Config{ServiceName: "test", LockTTL: time.Minute},
		Messages:     messages,
		Publications: pubs,
		Locks:        locks,
		Publishers:   publishers,
		Generators:   generators,
		Files:        files,
		Audit:        fakeAudit{},
	})
	return &fixture{svc: svc, messages: messages, pubs: pubs, locks: locks, files: files}
}

func TestPublishReturnsOneOutcomePerDestination(t *testing.T) {
	publishers := []ports.PlatformPublisher{
		okPublisher(domain.PlatformFacebook),
		panicPublisher(domain.PlatformInstagram),
		failPublisher(domain.PlatformLinkedIn, "upload rejected"),
		okPublisher(domain.PlatformWhatsApp),
		okPublisher(domain.PlatformTikTok),
	}
	fx := newFixture(publishers, nil)

	outcomes, err := fx.svc.PublishMessage(context.Background(), application.PublishInput{MessageID: "msg-1"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(outcomes) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(outcomes))
	}
	byPlatform := map[string]domain.PlatformOutcome{}
	for _, o := range outcomes {
		byPlatform[o.Platform] = o
	}
	if !byPlatform[domain.PlatformFacebook].Success {
		t.Fatal("facebook should succeed")
	}
	if byPlatform[domain.PlatformInstagram].Success {
		t.Fatal("panicking adapter must fold into a failed outcome")
	}
	if !strings.Contains(byPlatform[domain.PlatformInstagram].ErrorMessage, "panic") {
		t.Fatalf("panic should be visible in the outcome: %s", byPlatform[domain.PlatformInstagram].ErrorMessage)
	}
	if !byPlatform[domain.PlatformWhatsApp].Success || !byPlatform[domain.PlatformTikTok].Success {
		t.Fatal("later destinations must still run after earlier failures")
	}

	if got := fx.messages.rows["msg-1"].PublicationState; got != domain.PublicationStateError {
		t.Fatalf("any failure must mark the message error, got %s", got)
	}
	if fx.messages.stateLog[0] != domain.PublicationStatePublishing {
		t.Fatalf("message must enter publishing before adapters run, got %v", fx.messages.stateLog)
	}
}

func TestPublishAllSuccessMarksPublished(t *testing.T) {
	publishers := []ports.PlatformPublisher{
		okPublisher(domain.PlatformFacebook),
		okPublisher(domain.PlatformInstagram),
	}
	fx := newFixture(publishers, nil)

	outcomes, err := fx.svc.PublishMessage(context.Background(), application.PublishInput{MessageID: "msg-1"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if got := fx.messages.rows["msg-1"].PublicationState; got != domain.PublicationStatePublished {
		t.Fatalf("expected published state, got %s", got)
	}
	if len(fx.pubs.rows) != 2 {
		t.Fatalf("expected one record per outcome, got %d", len(fx.pubs.rows))
	}
	if fx.locks.held["msg-1"] {
		t.Fatal("lock should be released after the run")
	}
}

func TestPublishRejectsConcurrentRun(t *testing.T) {
	fx := newFixture([]ports.PlatformPublisher{okPublisher(domain.PlatformFacebook)}, nil)
	fx.locks.held["msg-1"] = true

	_, err := fx.svc.PublishMessage(context.Background(), application.PublishInput{MessageID: "msg-1"})
	if !errors.Is(err, domain.ErrPublishInProgress) {
		t.Fatalf("expected ErrPublishInProgress, got %v", err)
	}
	if len(fx.messages.stateLog) != 0 {
		t.Fatal("rejected run must not touch message state")
	}
}

func TestPublishRejectsMalformedContent(t *testing.T) {
	fx := newFixture([]ports.PlatformPublisher{okPublisher(domain.PlatformFacebook)}, nil)
	row := fx.messages.rows["msg-1"]
	row.Content = "not a bundle"
	fx.messages.rows["msg-1"] = row

	_, err := fx.svc.PublishMessage(context.Background(), application.PublishInput{MessageID: "msg-1"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCaptionDefaultsPersisted(t *testing.T) {
	publishers := []ports.PlatformPublisher{okPublisher(domain.PlatformInstagram)}
	fx := newFixture(publishers, nil)
	row := fx.messages.rows["msg-1"]
	row.Content = `{
		"facebook":  {"caption": ""},
		"instagram": {"caption": ""},
		"linkedin":  {"caption": ""},
		"whatsapp":  {"caption": ""},
		"tiktok":    {"title": ""}
	}`
	fx.messages.rows["msg-1"] = row

	if _, err := fx.svc.PublishMessage(context.Background(), application.PublishInput{MessageID: "msg-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fx.pubs.rows) != 1 {
		t.Fatalf("expected 1 record, got %d", len(fx.pubs.rows))
	}
	if got := fx.pubs.rows[0].Caption; got != "Content for instagram" {
		t.Fatalf("expected generated default caption, got %q", got)
	}
}

func TestPersistenceFailureDoesNotEraseOutcomes(t *testing.T) {
	publishers := []ports.PlatformPublisher{
		okPublisher(domain.PlatformFacebook),
		okPublisher(domain.PlatformInstagram),
	}
	fx := newFixture(publishers, nil)
	fx.pubs.failCreate[domain.PlatformFacebook] = errors.New("connection reset")

	outcomes, err := fx.svc.PublishMessage(context.Background(), application.PublishInput{MessageID: "msg-1"})
	if err != nil {
		t.Fatalf("storage hiccup must not fail the run: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if len(fx.pubs.rows) != 1 {
		t.Fatalf("the insertable record should still be persisted, got %d", len(fx.pubs.rows))
	}
}

func TestPublishResolvesImageForAdapters(t *testing.T) {
	var seen ports.PublishRequest
	capture := &fakePublisher{platform: domain.PlatformFacebook, publish: func(req ports.PublishRequest) domain.PlatformOutcome {
		seen = req
		return domain.PlatformOutcome{Platform: domain.PlatformFacebook, Success: true}
	}}
	fx := newFixture([]ports.PlatformPublisher{capture}, nil)

	if _, err := fx.svc.PublishMessage(context.Background(), application.PublishInput{MessageID: "msg-1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if seen.Image == nil {
		t.Fatal("adapter should receive the resolved image")
	}
	if seen.Image.PublicURL != "http://host/api/images/cat.png" {
		t.Fatalf("wrong public url: %s", seen.Image.PublicURL)
	}
	if seen.Image.LocalPath != "/media/images/cat.png" {
		t.Fatalf("wrong local path: %s", seen.Image.LocalPath)
	}
	if seen.ImageRef != "dummy:///cat.png" {
		t.Fatalf("raw ref should pass through: %s", seen.ImageRef)
	}
	if seen.Caption != "fb post" {
		t.Fatalf("wrong caption: %s", seen.Caption)
	}
}

type fakeGenerator struct {
	provider string
	filename string
	err      error
}

func (f *fakeGenerator) Provider() string { return f.provider }

func (f *fakeGenerator) Generate(context.Context, string, string) (string, error) {
	return f.filename, f.err
}

func TestGenerateAndPublishVideoTargetsTikTokOnly(t *testing.T) {
	facebook := okPublisher(domain.PlatformFacebook)
	tiktok := okPublisher(domain.PlatformTikTok)
	gen := &fakeGenerator{provider: "runway", filename: "runway_task-1_1.mp4"}
	fx := newFixture([]ports.PlatformPublisher{facebook, tiktok}, []ports.VideoGenerator{gen})
	fx.files.videos["runway_task-1_1.mp4"] = true

	outcome, err := fx.svc.GenerateAndPublishVideo(context.Background(), application.VideoInput{
		MessageID: "msg-1",
		Prompt:    "a cat in space",
	})
	if err != nil {
		t.Fatalf("generate and publish: %v", err)
	}
	if !outcome.Success || outcome.Platform != domain.PlatformTikTok {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if facebook.calls != 0 {
		t.Fatal("video path must not fan out to other destinations")
	}
	if tiktok.calls != 1 {
		t.Fatalf("tiktok should be published exactly once, got %d", tiktok.calls)
	}
	if got := fx.messages.rows["msg-1"].GeneratedVideo; got != "runway_task-1_1.mp4" {
		t.Fatalf("generated video not stored on message: %q", got)
	}
	if len(fx.pubs.rows) != 1 {
		t.Fatalf("expected one publication record, got %d", len(fx.pubs.rows))
	}
	if fx.pubs.rows[0].VideoURL != "http://host/api/videos/runway_task-1_1.mp4" {
		t.Fatalf("record missing video url: %s", fx.pubs.rows[0].VideoURL)
	}
}

func TestGenerateVideoFailureMarksErrorState(t *testing.T) {
	tiktok := okPublisher(domain.PlatformTikTok)
	gen := &fakeGenerator{provider: "runway", err: errors.New("provider down")}
	fx := newFixture([]ports.PlatformPublisher{tiktok}, []ports.VideoGenerator{gen})

	_, err := fx.svc.GenerateAndPublishVideo(context.Background(), application.VideoInput{
		MessageID: "msg-1",
		Prompt:    "a cat in space",
	})
	if err == nil {
		t.Fatal("expected generation error")
	}
	if got := fx.messages.rows["msg-1"].VideoState; got != domain.VideoStateError {
		t.Fatalf("expected error video state, got %s", got)
	}
	if tiktok.calls != 0 {
		t.Fatal("failed generation must not publish")
	}
}

func TestGenerateVideoUnknownProvider(t *testing.T) {
	tiktok := okPublisher(domain.PlatformTikTok)
	gen := &fakeGenerator{provider: "runway", filename: "x.mp4"}
	fx := newFixture([]ports.PlatformPublisher{tiktok}, []ports.VideoGenerator{gen})

	_, err := fx.svc.GenerateAndPublishVideo(context.Background(), application.VideoInput{
		MessageID: "msg-1",
		Prompt:    "prompt",
		Provider:  "dalle",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetHistoryFiltersByChat(t *testing.T) {
	fx := newFixture([]ports.PlatformPublisher{okPublisher(domain.PlatformFacebook)}, nil)
	fx.pubs.rows = []domain.Publication{
		{ChatID: "chat-1", Platform: domain.PlatformFacebook},
		{ChatID: "chat-2", Platform: domain.PlatformTikTok},
	}

	rows, err := fx.svc.GetHistory(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(rows) != 1 || rows[0].Platform != domain.PlatformFacebook {
		t.Fatalf("wrong history rows: %+v", rows)
	}

	if _, err := fx.svc.GetHistory(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank chat id should be rejected, got %v", err)
	}
}
