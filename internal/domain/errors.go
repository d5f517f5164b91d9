package domain

import (
	"errors"
	"fmt"
)

var (
	ErrFetch         = errors.New("fetch failed")
	ErrParse         = errors.New("unexpected page structure")
	ErrNoContent     = errors.New("no content")
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownSource = errors.New("unknown source")
	ErrStorage       = errors.New("storage failure")
)

// FetchError describes a failed network retrieval of a source page.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

// RetractionWarning reports that a ledger entry was removed but the
// channel message could not be retracted.
type RetractionWarning struct {
	Link string
	Ref  MessageRef
	Err  error
}

func (w *RetractionWarning) Error() string {
	return fmt.Sprintf("retract message %d for %s: %v", w.Ref, w.Link, w.Err)
}

func (w *RetractionWarning) Unwrap() error {
	return w.Err
}
