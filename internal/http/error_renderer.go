package httpx

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/botivate/systems-dashboard/internal/errors"
)

const genericErrorMessage = "An error occurred. Please try again."

// StatusForError maps an error onto the HTTP status sent to API clients.
func StatusForError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeBusy:
		return http.StatusConflict
	case apperrors.ErrCodeRemoteFetch:
		return http.StatusBadGateway
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeCanceled:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeCorruptSession, apperrors.ErrCodeInternal:
		return http.StatusInternalServerError
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case apperrors.IsRemoteFetch(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCodeFor returns the machine-readable code for an error response.
func ErrorCodeFor(err error) string {
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	if apperrors.IsRemoteFetch(err) {
		return string(apperrors.ErrCodeRemoteFetch)
	}
	return string(apperrors.ErrCodeInternal)
}

// UserMessage returns the text to show for err. Context errors get a
// dedicated message; anything without an AppError message gets a generic one.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if apperrors.GetCode(err) == "" {
		if errors.Is(err, context.DeadlineExceeded) {
			return "Request timed out. Please try again."
		}
		if errors.Is(err, context.Canceled) {
			return "Request was canceled."
		}
	}
	return apperrors.UserMessage(err, genericErrorMessage)
}
