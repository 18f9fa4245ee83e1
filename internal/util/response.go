package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/chirp/internal/errors"
	"github.com/zfogg/chirp/internal/logger"
	"go.uber.org/zap"
)

// Envelope is the body of every API response
type Envelope struct {
	Status  int         `json:"status"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// ErrorEnvelope is Envelope plus the machine-readable error fields
type ErrorEnvelope struct {
	Status  int         `json:"status"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Field   string      `json:"field,omitempty"`
	Details string      `json:"details,omitempty"`
}

// Respond writes a success envelope
func Respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Envelope{Status: status, Data: data, Message: message})
}

// RespondOK writes a 200 envelope
func RespondOK(c *gin.Context, data interface{}, message string) {
	Respond(c, http.StatusOK, data, message)
}

// RespondCreated writes a 201 envelope
func RespondCreated(c *gin.Context, data interface{}, message string) {
	Respond(c, http.StatusCreated, data, message)
}

// RespondWithAPIError sends a structured API error response
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Message),
		zap.Int("status", apiErr.Status),
		zap.String("path", c.FullPath()),
	}
	if apiErr.Field != "" {
		fields = append(fields, zap.String("field", apiErr.Field))
	}
	if requestID := c.GetString("request_id"); requestID != "" {
		fields = append(fields, logger.WithRequestID(requestID))
	}
	if cause := apiErr.Unwrap(); cause != nil {
		fields = append(fields, zap.Error(cause))
	}

	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error", fields...)
	} else if apiErr.Status >= http.StatusBadRequest {
		logger.Log.Warn("API error", fields...)
	}

	c.AbortWithStatusJSON(apiErr.Status, ErrorEnvelope{
		Status:  apiErr.Status,
		Data:    nil,
		Message: apiErr.Message,
		Code:    string(apiErr.Code),
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

// RespondWithError renders any error. Errors that are not *APIError become a 500.
func RespondWithError(c *gin.Context, err error) {
	if apiErr, ok := errors.As(err); ok {
		RespondWithAPIError(c, apiErr)
		return
	}
	RespondWithAPIError(c, errors.Internal("internal server error", err))
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "unauthorized"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Unauthorized(msg))
}

// RespondNotFound sends a 404 Not Found response
func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.NotFound(resource))
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.BadRequest(message))
}

// RespondForbidden sends a 403 Forbidden response
func RespondForbidden(c *gin.Context, message ...string) {
	msg := "forbidden"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Forbidden(msg))
}

// RespondInternalError sends a 500 and logs the cause
func RespondInternalError(c *gin.Context, message string, cause error) {
	RespondWithAPIError(c, errors.Internal(message, cause))
}

// RespondConflict sends a 409 Conflict response
func RespondConflict(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.Conflict(message))
}

// RespondValidationError sends a 400 with the offending field
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}
