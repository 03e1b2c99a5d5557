package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/al3xb0/mindpal-task/internal/model"
	"go.uber.org/zap"
)

// ErrorResponse represents the standard error response format.
type ErrorResponse struct {
	Status    string             `json:"status"`
	ErrorCode Kind               `json:"error_code"`
	Message   string             `json:"error"`
	Details   []model.FieldError `json:"details,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
}

// Handler provides error handling functionality.
type Handler struct {
	logger *zap.Logger
}

// NewHandler creates a new error handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger: logger,
	}
}

// HandleError processes an error and writes an appropriate HTTP response.
func (h *Handler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := r.Header.Get("X-Request-ID")

	var e *Error
	if !errors.As(err, &e) {
		h.logger.Error("unclassified error",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		h.WriteErrorResponse(w, http.StatusInternalServerError, KindInternal, "An unexpected error occurred", nil, requestID)
		return
	}

	if e.Cause != nil {
		h.logger.Warn("request failed",
			zap.String("error_code", string(e.Kind)),
			zap.Error(e.Cause),
			zap.String("request_id", requestID),
		)
	}

	h.WriteErrorResponse(w, HTTPStatus(e.Kind), e.Kind, e.Message, e.Details, requestID)
}

// HTTPStatus converts an error kind to an HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidPage, KindInvalidFilter, KindInvalidRequest:
		return http.StatusBadRequest
	case KindAuthRequired:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindOperationInProgress:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a formatted error response to the HTTP response writer.
func (h *Handler) WriteErrorResponse(w http.ResponseWriter, statusCode int, kind Kind, message string, details []model.FieldError, requestID string) {
	h.logger.Warn("HTTP error response",
		zap.Int("status_code", statusCode),
		zap.String("error_code", string(kind)),
		zap.String("message", message),
		zap.Int("details", len(details)),
		zap.String("request_id", requestID),
	)

	resp := ErrorResponse{
		Status:    "error",
		ErrorCode: kind,
		Message:   message,
		Details:   details,
		RequestID: requestID,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// WriteValidationError writes a validation error response.
func (h *Handler) WriteValidationError(w http.ResponseWriter, message string, requestID string) {
	h.WriteErrorResponse(w, http.StatusBadRequest, KindInvalidRequest, message, nil, requestID)
}

// WriteAuthRequired writes an unauthenticated response.
func (h *Handler) WriteAuthRequired(w http.ResponseWriter, requestID string) {
	h.WriteErrorResponse(w, http.StatusUnauthorized, KindAuthRequired, "You must be logged in to manage favorites", nil, requestID)
}

// WriteRateLimitedError writes a rate limit exceeded response.
func (h *Handler) WriteRateLimitedError(w http.ResponseWriter, requestID string) {
	h.WriteErrorResponse(w, http.StatusTooManyRequests, KindRateLimited, "rate limit exceeded", nil, requestID)
}
