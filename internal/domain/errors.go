package domain

import "errors"

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidInput      = errors.New("invalid_input")
	ErrConflict          = errors.New("conflict")
	ErrPublishInProgress = errors.New("publish_in_progress")
	ErrMissingMedia      = errors.New("missing_media")
)
