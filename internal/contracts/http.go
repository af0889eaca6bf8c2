// Package contracts holds the wire DTOs for the HTTP surface.
package contracts

type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type PublishRequest struct {
	MessageID string `json:"message_id"`
	ImageRef  string `json:"image_ref,omitempty"`
	VideoRef  string `json:"video_ref,omitempty"`
}

type OutcomeItem struct {
	Platform     string `json:"platform"`
	Success      bool   `json:"success"`
	PostID       string `json:"post_id,omitempty"`
	Link         string `json:"link,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type PublishResponse struct {
	MessageID string        `json:"message_id"`
	State     string        `json:"state"`
	Outcomes  []OutcomeItem `json:"outcomes"`
}

type VideoPublishRequest struct {
	MessageID string `json:"message_id"`
	Prompt    string `json:"prompt"`
	Provider  string `json:"provider,omitempty"`
}

type VideoPublishResponse struct {
	MessageID string      `json:"message_id"`
	Outcome   OutcomeItem `json:"outcome"`
}

type PublicationItem struct {
	PublicationID string `json:"publication_id"`
	Title         string `json:"title,omitempty"`
	Platform      string `json:"platform"`
	PostID        string `json:"post_id,omitempty"`
	Caption       string `json:"caption"`
	ImageURL      string `json:"image_url,omitempty"`
	VideoURL      string `json:"video_url,omitempty"`
	Link          string `json:"link,omitempty"`
	MessageID     string `json:"message_id"`
	ChatID        string `json:"chat_id"`
	State         string `json:"state"`
	CreatedAt     string `json:"created_at"`
}

type HistoryResponse struct {
	Publications []PublicationItem `json:"publications"`
}

type ContainerStatusResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	StatusCode string `json:"status_code"`
}
