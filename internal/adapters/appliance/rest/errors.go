package rest

import (
	"context"
	stderrs "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/olusolaa/appliance-converge/internal/errors"
)

// apiError is the error body the management API returns.
type apiError struct {
	Code       int      `json:"code"`
	Message    string   `json:"message"`
	ErrorStack []string `json:"errorStack"`
}

// handleStatus maps a non-2xx response onto the error taxonomy.
func handleStatus(method, path string, status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var parsed apiError
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		msg = parsed.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	cause := fmt.Errorf("%s %s: HTTP %d: %s", method, path, status, msg)

	switch {
	case status == http.StatusNotFound:
		return errors.Wrap(cause, errors.CodeResourceNotFound, fmt.Sprintf("'%s' not found", path))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.WrapUserFacing(cause, errors.CodeTransportAuth,
			fmt.Sprintf("appliance rejected credentials for %s %s", method, path),
			"Check the appliance username, password or token.")
	case status == http.StatusBadRequest || status == http.StatusConflict:
		// The API reports semantic rejections (bad reference, duplicate) as 400/409.
		return errors.Wrap(cause, errors.CodeTransport, fmt.Sprintf("appliance rejected %s %s: %s", method, path, msg))
	default:
		return errors.Wrap(cause, errors.CodeTransport, fmt.Sprintf("appliance request %s %s failed", method, path))
	}
}

// handleTransportError wraps failures that happened before a response arrived.
func handleTransportError(ctx context.Context, method, path string, err error) error {
	if ctx.Err() != nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("request %s %s cancelled", method, path))
	}
	return errors.Wrap(err, errors.CodeTransport, fmt.Sprintf("request %s %s failed", method, path))
}
