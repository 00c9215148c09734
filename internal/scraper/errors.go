package scraper

import (
	"errors"
	"fmt"
)

// StatusError is an HTTP response with an error status code
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.URL)
}

// FetchError reports a page that could not be fetched
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err was caused by the course website being unreachable or failing
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
