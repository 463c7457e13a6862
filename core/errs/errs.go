// Package errs defines the error taxonomy shared across the sync pipeline.
//
// The sentinels below drive the pipeline's failure policy: ErrAuth aborts the
// whole run, ErrAPI/ErrSchema/ErrLoad abort a single entity, and ErrTransform
// marks a single skipped record. Components wrap their failures with one of
// these so that callers can classify with errors.Is without depending on
// component internals.
package errs

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAuth indicates token acquisition or refresh failed. Fatal to the run.
	ErrAuth = errors.New("authentication error")
	// ErrAPI indicates an HTTP call exhausted its retries. Fatal to the entity.
	ErrAPI = errors.New("api error")
	// ErrSchema indicates a migration transaction failed and was rolled back.
	ErrSchema = errors.New("schema error")
	// ErrLoad indicates the database connection was lost during a load.
	ErrLoad = errors.New("load error")
	// ErrTransform indicates a single record could not be coerced to a row.
	ErrTransform = errors.New("transform error")
	// ErrConfig indicates invalid or incomplete configuration.
	ErrConfig = errors.New("configuration error")
)

// Wrap annotates err with a message and tags it with the given sentinel.
func Wrap(err error, sentinel error, message string) error {
	wrapped := fmt.Errorf("%s: %w", message, err)
	return fmt.Errorf("%w: %v", sentinel, wrapped)
}

// APIError carries the HTTP status and response body of a failed CRM call.
// It wraps ErrAPI so errors.Is(err, errs.ErrAPI) matches.
type APIError struct {
	StatusCode int
	Body       string
	// RetryAfter is the server-requested wait from a rate-limit response,
	// zero when the server sent none.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, body)
}

func (e *APIError) Unwrap() error {
	return ErrAPI
}
