package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/application"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/contracts"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
)

type Handler struct{ service *application.Service }

func NewHandler(service *application.Service) *Handler { return &Handler{service: service} }

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	var req contracts.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	outcomes, err := h.service.PublishMessage(r.Context(), application.PublishInput{
		MessageID: req.MessageID,
		ImageRef:  req.ImageRef,
		VideoRef:  req.VideoRef,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	state := domain.PublicationStatePublished
	items := make([]contracts.OutcomeItem, 0, len(outcomes))
	for _, outcome := range outcomes {
		if !outcome.Success {
			state = domain.PublicationStateError
		}
		items = append(items, outcomeItem(outcome))
	}
	writeSuccess(w, http.StatusOK, "", contracts.PublishResponse{
		MessageID: req.MessageID,
		State:     state,
		Outcomes:  items,
	})
}

func (h *Handler) publishVideo(w http.ResponseWriter, r *http.Request) {
	var req contracts.VideoPublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "invalid json body", requestIDFromContext(r.Context()))
		return
	}
	outcome, err := h.service.GenerateAndPublishVideo(r.Context(), application.VideoInput{
		MessageID: req.MessageID,
		Prompt:    req.Prompt,
		Provider:  req.Provider,
	})
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", contracts.VideoPublishResponse{
		MessageID: req.MessageID,
		Outcome:   outcomeItem(outcome),
	})
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.GetHistory(r.Context(), r.URL.Query().Get("chat_id"))
	if err != nil {
		status, code := mapDomainError(err)
		writeError(w, status, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	items := make([]contracts.PublicationItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, contracts.PublicationItem{
			PublicationID: row.PublicationID,
			Title:         row.Title,
			Platform:      row.Platform,
			PostID:        row.PostID,
			Caption:       row.Caption,
			ImageURL:      row.ImageURL,
			VideoURL:      row.VideoURL,
			Link:          row.Link,
			MessageID:     row.MessageID,
			ChatID:        row.ChatID,
			State:         row.State,
			CreatedAt:     row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeSuccess(w, http.StatusOK, "", contracts.HistoryResponse{Publications: items})
}

func (h *Handler) getContainerStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.InstagramContainerStatus(r.Context(), chi.URLParam(r, "containerID"))
	if err != nil {
		httpStatus, code := mapDomainError(err)
		writeError(w, httpStatus, code, err.Error(), requestIDFromContext(r.Context()))
		return
	}
	writeSuccess(w, http.StatusOK, "", contracts.ContainerStatusResponse{
		ID:         status.ID,
		Status:     status.Status,
		StatusCode: status.StatusCode,
	})
}

func outcomeItem(outcome domain.PlatformOutcome) contracts.OutcomeItem {
	return contracts.OutcomeItem{
		Platform:     outcome.Platform,
		Success:      outcome.Success,
		PostID:       outcome.PostID,
		Link:         outcome.Link,
		ErrorMessage: outcome.ErrorMessage,
	}
}
