package github

import (
	"errors"
	"fmt"

	"github.com/google/go-github/v41/github"
)

// ErrNotFound is matched by errors.Is for 404 responses and for branches
// without commits.
var ErrNotFound = errors.New("not found")

// APIError is a failed API call together with its HTTP status.
type APIError struct {
	Status int
	Err    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api error (status %d): %v", e.Status, e.Err)
}

// StatusCode returns the HTTP status of the failed call.
func (e *APIError) StatusCode() int {
	return e.Status
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports 404 errors as ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}

// wrapError attaches the HTTP status of resp, or of the error response, to err.
func wrapError(err error, resp *github.Response) error {
	if err == nil {
		return nil
	}

	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	var errorResponse *github.ErrorResponse
	if status == 0 && errors.As(err, &errorResponse) && errorResponse.Response != nil {
		status = errorResponse.Response.StatusCode
	}
	if status == 0 {
		return err
	}
	return &APIError{Status: status, Err: err}
}
