package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/kangmaup/storesync/pkg/errors"
)

// apiErrorBody mirrors the error envelope returned by the storefront API:
// a single "error" field carrying a human-readable message.
type apiErrorBody struct {
	Error string `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an appropriate AppError. If the body matches the storefront's
// {"error": "..."} envelope the message is preserved; otherwise the raw body
// is used.
//
// The caller should only invoke this when resp.StatusCode indicates an error
// (i.e., not 2xx). The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, operation string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB limit
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", operation, resp.StatusCode, err)
	}

	message := string(bodyBytes)
	var envelope apiErrorBody
	if json.Unmarshal(bodyBytes, &envelope) == nil && envelope.Error != "" {
		message = envelope.Error
	}

	return mapStatusError(resp.StatusCode, message, operation)
}

// mapStatusError translates an HTTP status code into an AppError that
// preserves the error semantics. 401 maps to the distinguishable
// unauthorized kind that session teardown keys on.
func mapStatusError(status int, message, operation string) error {
	qualifiedMsg := fmt.Sprintf("%s: %s", operation, message)

	switch {
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualifiedMsg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualifiedMsg)
	case status == http.StatusNotFound:
		return apperrors.NotFound(operation, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case status == http.StatusUnprocessableEntity:
		return apperrors.CheckoutRejected(qualifiedMsg)
	case status == http.StatusServiceUnavailable:
		return &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: qualifiedMsg,
			Status:  http.StatusServiceUnavailable,
			Err:     apperrors.ErrServiceUnavail,
		}
	case status >= 500:
		return fmt.Errorf("%s server error (%d): %s", operation, status, message)
	default:
		return &apperrors.AppError{
			Code:    "HTTP_ERROR",
			Message: qualifiedMsg,
			Status:  status,
		}
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
