package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/stefando/multipartUpload/internal/upload"
	"github.com/stefando/multipartUpload/internal/validate"
)

const maxBodyBytes = 1 << 20

// StartResponse is the data returned by POST /start.
type StartResponse struct {
	FileType     string `json:"file_type"`
	OriginalName string `json:"original_name"`
	UploadID     string `json:"upload_id"`
	Key          string `json:"key"`
	FileKey      string `json:"file_key"`
}

// AbortResponse is the data returned by POST /abort.
type AbortResponse struct {
	FileKey  string `json:"file_key"`
	UploadID string `json:"upload_id"`
}

// Handler serves the multipart upload endpoints.
type Handler struct {
	uploads *upload.Service
	logger  *slog.Logger
}

// NewHandler creates a Handler backed by svc. A nil logger means slog.Default.
func NewHandler(svc *upload.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{uploads: svc, logger: logger}
}

// decodeBody reads the request body as a single untyped JSON object.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidJSON, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: null body", errInvalidJSON)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after object", errInvalidJSON)
	}
	return raw, nil
}

// Start handles POST /start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	req, err := validate.Initiate(raw)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	fileName := upload.DeriveFileName(req.OriginalName, req.FileType)
	sess, err := h.uploads.Initiate(r.Context(), fileName, req.FileType)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	sendSuccess(w, MsgUploadStarted, StartResponse{
		FileType:     req.FileType,
		OriginalName: req.OriginalName,
		UploadID:     sess.UploadID,
		Key:          fileName,
		FileKey:      sess.FileKey,
	})
}

// URLs handles POST /urls.
func (h *Handler) URLs(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	req, err := validate.Authorize(raw)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	urls, err := h.uploads.AuthorizeParts(r.Context(), req.FileKey, req.Parts, req.UploadID)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	sendSuccess(w, MsgUploadURLs, urls)
}

// Complete handles POST /complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	req, err := validate.Complete(raw)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	result, err := h.uploads.Complete(r.Context(), req.FileKey, req.UploadID, req.Parts)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	sendSuccess(w, MsgUploadCompleted, result)
}

// Abort handles POST /abort.
func (h *Handler) Abort(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	req, err := validate.Abort(raw)
	if err != nil {
		h.sendError(w, r, err)
		return
	}

	if err := h.uploads.Abort(r.Context(), req.FileKey, req.UploadID); err != nil {
		h.sendError(w, r, err)
		return
	}

	sendSuccess(w, MsgUploadAborted, AbortResponse{FileKey: req.FileKey, UploadID: req.UploadID})
}
