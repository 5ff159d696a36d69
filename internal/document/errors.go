package document

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDocument is returned by operations that need an open file.
	ErrNoDocument = errors.New("no document open")
	// ErrPageRange is returned for logical page indices outside the document.
	ErrPageRange = errors.New("page out of range")
)

// OpenError reports a source file that could not be opened or parsed.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open document %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }
