package woocommerce

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the caller's context ends during retrieval.
var ErrCancelled = errors.New("retrieval cancelled")

// RetrievalError is a non-2xx answer from the store API.
type RetrievalError struct {
	Resource   string
	Page       int
	StatusCode int
	Message    string
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieve %s page %d: %s", e.Resource, e.Page, e.Message)
}
