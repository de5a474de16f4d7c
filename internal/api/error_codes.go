// internal/api/error_codes.go
package api

// API error code constants.
const (
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"

	ErrorNoActiveSession = "NO_ACTIVE_SESSION"
	ErrorUploadFailed    = "UPLOAD_FAILED"
)
