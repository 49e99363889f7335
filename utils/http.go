package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/portal-gateway/services"
)

// ErrorResponse is the body of every API error. RequestID echoes the id chi
// assigned to the request so a client report can be matched to the logs.
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps a successful payload as {"data": ...}
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// errorCodes names the error field of an ErrorResponse per status.
// Anything not listed is reported as internal_error.
var errorCodes = map[int]string{
	http.StatusBadRequest:         "bad_request",
	http.StatusUnauthorized:       "unauthorized",
	http.StatusForbidden:          "forbidden",
	http.StatusNotFound:           "not_found",
	http.StatusConflict:           "conflict",
	http.StatusBadGateway:         "bad_gateway",
	http.StatusServiceUnavailable: "service_unavailable",
}

// Messages shown in place of internal failures
const (
	internalMessage  = "An internal error occurred"
	unhandledMessage = "An unexpected error occurred"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// WriteOK writes a 200 OK response with data
func WriteOK(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

// WriteCreated writes a 201 Created response with data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

// WriteError writes an error response for status. An empty message falls
// back to the status text.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message string, details map[string]interface{}) error {
	code, ok := errorCodes[status]
	if !ok {
		code = "internal_error"
	}
	if message == "" {
		message = http.StatusText(status)
	}

	return WriteJSON(w, status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: requestID(r),
		Details:   details,
	})
}

// WriteBadRequest writes a 400 response with field details
func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string, details map[string]interface{}) error {
	return WriteError(w, r, http.StatusBadRequest, message, details)
}

// WriteServiceError answers with the status and public message of a domain
// error. Internal and non-domain errors never expose their text, and details
// are only sent for validation and conflict errors.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) error {
	status := ErrorStatus(err)

	var details map[string]interface{}
	message := PublicMessage(err)
	switch services.GetErrorType(err) {
	case services.ErrorTypeValidation, services.ErrorTypeConflict:
		if d := services.GetErrorDetails(err); len(d) > 0 {
			details = d
		}
	case services.ErrorTypeInternal:
		message = internalMessage
	case "":
		message = unhandledMessage
	}

	return WriteError(w, r, status, message, details)
}

// ErrorStatus maps a domain error to its HTTP status. A failed admin lookup
// is a 503, every other upstream failure a 502.
func ErrorStatus(err error) int {
	switch services.GetErrorType(err) {
	case services.ErrorTypeNotFound:
		return http.StatusNotFound
	case services.ErrorTypeValidation:
		return http.StatusBadRequest
	case services.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorTypeForbidden:
		return http.StatusForbidden
	case services.ErrorTypeConflict:
		return http.StatusConflict
	case services.ErrorTypeExternal:
		if errors.Is(err, services.ErrAdminCheckFailed) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message of the outermost domain error, leaving
// wrapped causes out of the response
func PublicMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}

func requestID(r *http.Request) string {
	if r == nil {
		return ""
	}
	return chimiddleware.GetReqID(r.Context())
}
