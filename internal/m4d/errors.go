package m4d

import (
	"errors"
	"fmt"
	"net/http"

	"m4dsync/internal/services"
)

// APIError reports an HTTP status >= 400 from the directory. It matches
// services.ErrExternal under errors.Is.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("m4d %s %s returned %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("m4d %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return services.ErrExternal
}

// IsUnauthorized reports whether err is a 401 from the directory.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
