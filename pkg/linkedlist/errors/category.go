// Package errors classifies linked list failures and provides caller-side
// retry.
//
// The list never retries on its own. Callers that want to ride out transient
// allocation failures (a pool at capacity, an injected failure) wrap the
// operation with WithRetry, which retries only errors that Categorize marks
// as allocation failures.
package errors

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/linkedlist/pkg/linkedlist"
	"github.com/randalmurphal/linkedlist/pkg/linkedlist/alloc"
)

// Category groups errors by how a caller should react.
type Category int

const (
	// CategoryUnknown is anything not produced by this module.
	CategoryUnknown Category = iota

	// CategoryNilHandle indicates an operation on a nil list, iterator or
	// allocator. Retrying cannot help.
	CategoryNilHandle

	// CategoryAllocation indicates the allocator returned no memory.
	// The structure is unchanged; a retry may succeed.
	CategoryAllocation

	// CategoryOutOfBounds indicates an index past the reachable end, or a
	// removal from an empty list.
	CategoryOutOfBounds

	// CategoryEndOfSequence indicates an iterator moved past the last
	// element. This is normal termination.
	CategoryEndOfSequence

	// CategoryNotFound indicates a search found no matching element.
	CategoryNotFound

	// CategoryInvariant indicates a broken structural invariant.
	CategoryInvariant

	// CategoryConfiguration indicates an allocator could not be set up.
	CategoryConfiguration
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryNilHandle:
		return "nil_handle"
	case CategoryAllocation:
		return "allocation"
	case CategoryOutOfBounds:
		return "out_of_bounds"
	case CategoryEndOfSequence:
		return "end_of_sequence"
	case CategoryNotFound:
		return "not_found"
	case CategoryInvariant:
		return "invariant"
	case CategoryConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// ParseCategory returns the category with the given name.
func ParseCategory(name string) (Category, bool) {
	for c := CategoryUnknown; c <= CategoryConfiguration; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return CategoryUnknown, false
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Attempts is the number of attempts that were made.
	Attempts int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Attempts)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Attempts)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Categorize determines the category of err.
func Categorize(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	switch {
	case errors.Is(err, linkedlist.ErrNilList),
		errors.Is(err, linkedlist.ErrNilIterator),
		errors.Is(err, linkedlist.ErrNoAllocator):
		return CategoryNilHandle
	case errors.Is(err, linkedlist.ErrAllocFailed):
		return CategoryAllocation
	case errors.Is(err, linkedlist.ErrOutOfRange),
		errors.Is(err, linkedlist.ErrEmpty):
		return CategoryOutOfBounds
	case errors.Is(err, linkedlist.ErrExhausted):
		return CategoryEndOfSequence
	case errors.Is(err, linkedlist.ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, linkedlist.ErrCycle),
		errors.Is(err, linkedlist.ErrSizeMismatch):
		return CategoryInvariant
	case errors.Is(err, alloc.ErrNilAllocFunc),
		errors.Is(err, alloc.ErrNilFreeFunc),
		errors.Is(err, alloc.ErrUnknownProfile),
		errors.Is(err, ErrInvalidRetryConfig):
		return CategoryConfiguration
	}
	return CategoryUnknown
}

// IsRetryable reports whether retrying the operation may succeed.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryAllocation
}

// IsEndOfSequence reports whether err marks normal end of iteration.
func IsEndOfSequence(err error) bool {
	return Categorize(err) == CategoryEndOfSequence
}
