package http

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
)

// MediaHandler serves stored media so destination APIs can fetch images by
// public URL. No auth: Facebook and Instagram pull these anonymously.
type MediaHandler struct{ files ports.FileStore }

func NewMediaHandler(files ports.FileStore) *MediaHandler { return &MediaHandler{files: files} }

func (h *MediaHandler) getImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !h.files.ImageExists(filename) {
		writeError(w, http.StatusNotFound, "not_found", "image not found", requestIDFromContext(r.Context()))
		return
	}
	serveMedia(w, r, h.files.ImagePath(filename), mediaContentType(filename))
}

func (h *MediaHandler) getVideo(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !h.files.VideoExists(filename) {
		writeError(w, http.StatusNotFound, "not_found", "video not found", requestIDFromContext(r.Context()))
		return
	}
	serveMedia(w, r, h.files.VideoPath(filename), mediaContentType(filename))
}

func serveMedia(w http.ResponseWriter, r *http.Request, filePath, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, filePath)
}

func mediaContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	default:
		return "application/octet-stream"
	}
}
