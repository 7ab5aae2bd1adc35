package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stefando/multipartUpload/internal/auth"
	"github.com/stefando/multipartUpload/internal/storage"
	"github.com/stefando/multipartUpload/internal/validate"
)

// Response messages.
const (
	MsgUploadStarted   = "Multipart upload started successfully"
	MsgUploadURLs      = "Multipart upload URLs fetched successfully"
	MsgUploadCompleted = "File uploaded successfully"
	MsgUploadAborted   = "Multipart upload aborted successfully"

	MsgSomethingWentWrong = "Something went wrong"
	MsgInvalidJSON        = "Request body must be a JSON object"
	MsgUnauthorized       = "Unauthorized"
	MsgForbidden          = "Forbidden"
	MsgStorageFailed      = "Storage request failed"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// SuccessEnvelope wraps every successful response.
type SuccessEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorEnvelope wraps every failed response. Errors lists field violations
// for validation failures; Code carries the backend error code for storage
// failures.
type ErrorEnvelope struct {
	Status  string                `json:"status"`
	Message string                `json:"message"`
	Code    string                `json:"code,omitempty"`
	Errors  []validate.FieldError `json:"errors,omitempty"`
}

var errInvalidJSON = errors.New("invalid JSON body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sendSuccess(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, SuccessEnvelope{
		Status:  statusSuccess,
		Message: message,
		Data:    data,
	})
}

// sendError maps err to a status code and error envelope.
func (h *Handler) sendError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *validate.ValidationError
		se *storage.StorageError
	)

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorEnvelope{
			Status:  statusError,
			Message: validate.MsgValidationFailed,
			Errors:  ve.Fields,
		})
	case errors.Is(err, errInvalidJSON):
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{
			Status:  statusError,
			Message: MsgInvalidJSON,
		})
	case errors.Is(err, auth.ErrMissingToken), errors.Is(err, auth.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, ErrorEnvelope{
			Status:  statusError,
			Message: MsgUnauthorized,
		})
	case errors.Is(err, auth.ErrMissingTenant):
		writeJSON(w, http.StatusForbidden, ErrorEnvelope{
			Status:  statusError,
			Message: MsgForbidden,
		})
	case errors.As(err, &se):
		h.logger.ErrorContext(r.Context(), "storage request failed",
			"op", se.Op, "key", se.Key, "upload_id", se.UploadID, "code", se.Code, "error", err)
		msg := se.Message
		if msg == "" {
			msg = MsgStorageFailed
		}
		writeJSON(w, storageStatus(err), ErrorEnvelope{
			Status:  statusError,
			Message: msg,
			Code:    se.Code,
		})
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorEnvelope{
			Status:  statusError,
			Message: MsgSomethingWentWrong,
		})
	}
}

func storageStatus(err error) int {
	switch {
	case storage.IsNotFound(err):
		return http.StatusNotFound
	case storage.IsAccessDenied(err):
		return http.StatusForbidden
	case storage.IsInvalidRequest(err):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
