package domain

import "time"

const (
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformLinkedIn  = "linkedin"
	PlatformWhatsApp  = "whatsapp"
	PlatformTikTok    = "tiktok"
)

// Publication fan-out order. The orchestrator runs destinations in this
// sequence and returns exactly one outcome per entry.
var Platforms = []string{
	PlatformFacebook,
	PlatformInstagram,
	PlatformLinkedIn,
	PlatformWhatsApp,
	PlatformTikTok,
}

const (
	PublicationStatePending    = "pending"
	PublicationStatePublishing = "publishing"
	PublicationStatePublished  = "published"
	PublicationStateError      = "error"
)

const (
	VideoStateGenerating = "generating"
	VideoStateCompleted  = "completed"
	VideoStateError      = "error"
)

type Message struct {
	MessageID        string    `json:"message_id"`
	ChatID           string    `json:"chat_id"`
	Content          string    `json:"content"`
	ImageFile        string    `json:"image_file,omitempty"`
	GeneratedVideo   string    `json:"generated_video,omitempty"`
	PublicationState string    `json:"publication_state"`
	VideoState       string    `json:"video_state,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MediaRef points at one media file. LocalPath is always set; PublicURL is
// only set for files reachable through the static media endpoint.
type MediaRef struct {
	LocalPath string
	PublicURL string
	MimeType  string
}

// PlatformOutcome is the per-destination result of one adapter run.
// Immutable once built; a failed adapter still yields one.
type PlatformOutcome struct {
	Platform     string `json:"platform"`
	Success      bool   `json:"success"`
	PostID       string `json:"post_id,omitempty"`
	Link         string `json:"link,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func FailedOutcome(platform string, err error) PlatformOutcome {
	return PlatformOutcome{Platform: platform, Success: false, ErrorMessage: err.Error()}
}

type Publication struct {
	PublicationID string    `json:"publication_id"`
	Title         string    `json:"title"`
	Platform      string    `json:"platform"`
	PostID        string    `json:"post_id,omitempty"`
	Caption       string    `json:"caption"`
	ImageURL      string    `json:"image_url,omitempty"`
	VideoURL      string    `json:"video_url,omitempty"`
	Link          string    `json:"link,omitempty"`
	MessageID     string    `json:"message_id"`
	ChatID        string    `json:"chat_id"`
	State         string    `json:"state"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GenerationJob mirrors one async text-to-video task at a provider.
type GenerationJob struct {
	ID       string
	Status   string
	Progress float64
	Output   []string
	Failure  string
}

const (
	JobStatusQueued    = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusSucceeded = "SUCCEEDED"
	JobStatusFailed    = "FAILED"
)

func (j GenerationJob) Terminal() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}
