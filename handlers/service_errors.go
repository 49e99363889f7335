package handlers

import (
	"net/http"

	"github.com/upb/portal-gateway/services"
	"github.com/upb/portal-gateway/utils"
	"go.uber.org/zap"
)

// HandleServiceError logs a domain error at the level its type deserves and
// answers with the mapped HTTP response
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	switch services.GetErrorType(err) {
	case services.ErrorTypeExternal:
		logger.Warn("upstream error", zap.Error(err))
	case services.ErrorTypeInternal:
		logger.Error("internal server error", zap.Error(err))
	case "":
		logger.Error("unhandled error type", zap.Error(err))
	default:
		logger.Debug("request rejected",
			zap.String("error_type", string(services.GetErrorType(err))),
			zap.Error(err))
	}

	if writeErr := utils.WriteServiceError(w, r, err); writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError handles errors from request decoding and validation
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	message := err.Error()
	var details map[string]interface{}
	if fields := utils.GetValidationFields(err); fields != nil {
		message = "Validation failed"
		details = make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
	}

	if err := utils.WriteBadRequest(w, r, message, details); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
