// internal/api/response_helpers.go
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/mirelio/gameforge/internal/errors"
)

// APIResponse is the uniform JSON envelope.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Code      string      `json:"code,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ResponseHelper writes API responses.
type ResponseHelper struct{}

// NewResponseHelper creates a ResponseHelper.
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// Success writes a 200 response with data.
func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(http.StatusOK, response)
}

// Created writes a 201 response with data.
func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(http.StatusCreated, response)
}

// Error converts a service error to the documented HTTP status and a single
// user-visible message.
func (rh *ResponseHelper) Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := ErrorInternalError

	var appError *apperrors.AppError
	if errors.As(err, &appError) {
		code = appError.Code
		switch appError.Type {
		case apperrors.ErrorTypeValidation:
			status = http.StatusBadRequest
		case apperrors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrorTypeOutOfRange:
			status = http.StatusUnprocessableEntity
		case apperrors.ErrorTypeConflict:
			status = http.StatusConflict
		case apperrors.ErrorTypeRemoteService, apperrors.ErrorTypeStorage:
			status = http.StatusBadGateway
		}
	}

	c.JSON(status, &APIResponse{
		Success:   false,
		Message:   err.Error(),
		Code:      code,
		Timestamp: time.Now(),
	})
}

// BadRequest writes a 400 with a plain message.
func (rh *ResponseHelper) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, &APIResponse{
		Success:   false,
		Message:   message,
		Code:      ErrorBadRequest,
		Timestamp: time.Now(),
	})
}
