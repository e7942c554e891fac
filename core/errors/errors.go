// Package errors provides the error taxonomy shared by the reference engine
// and the services built on it.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNoReference indicates the input contained no reference at all
	ErrNoReference = errors.New("no reference")
	// ErrInvalidReference indicates the input could not be read as a reference
	ErrInvalidReference = errors.New("invalid reference")
	// ErrOrder indicates a range whose end precedes its start
	ErrOrder = errors.New("range out of order")
	// ErrBounds indicates a chapter or verse that does not exist
	ErrBounds = errors.New("out of bounds")
	// ErrInvalidBook indicates an encoded book number outside the canon
	ErrInvalidBook = errors.New("invalid book number")

	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists indicates a resource already exists
	ErrAlreadyExists = errors.New("already exists")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")
)

// Kind classifies a ReferenceError.
type Kind int

const (
	KindNoReference Kind = iota + 1
	KindSyntax
	KindShape
	KindOrder
	KindBounds
	KindCodec
)

func (k Kind) String() string {
	switch k {
	case KindNoReference:
		return "no_reference"
	case KindSyntax:
		return "syntax"
	case KindShape:
		return "shape"
	case KindOrder:
		return "order"
	case KindBounds:
		return "bounds"
	case KindCodec:
		return "codec"
	}
	return "unknown"
}

// ReferenceError is returned when text or an encoded pair cannot be turned
// into a valid reference. Error returns the user-facing message only.
type ReferenceError struct {
	Kind    Kind
	Message string
	// Offset is the byte offset of the offending input for syntax errors,
	// -1 otherwise.
	Offset int
}

func (e *ReferenceError) Error() string {
	return e.Message
}

func (e *ReferenceError) Unwrap() error {
	switch e.Kind {
	case KindNoReference:
		return ErrNoReference
	case KindOrder:
		return ErrOrder
	case KindBounds:
		return ErrBounds
	case KindCodec:
		return ErrInvalidBook
	}
	return ErrInvalidReference
}

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "collection", "book")
	ID       string // Identifier of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "JSON", "OSIS", "manifest")
	Path    string // File path, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// Reference error constructors. The messages are part of the public
// contract and must not change.

// NewNoReference reports input that holds no tokens at all.
func NewNoReference() *ReferenceError {
	return &ReferenceError{Kind: KindNoReference, Message: "No reference found", Offset: -1}
}

// NewSyntax reports a character at offset that starts no token.
func NewSyntax(offset int) *ReferenceError {
	return &ReferenceError{Kind: KindSyntax, Message: "No valid reference found", Offset: offset}
}

// NewShape reports a token sequence that forms no known reference shape.
func NewShape() *ReferenceError {
	return &ReferenceError{Kind: KindShape, Message: "No valid reference found", Offset: -1}
}

// NewBookOrder reports an end book before the start book.
func NewBookOrder() *ReferenceError {
	return &ReferenceError{Kind: KindOrder, Message: "End book must come after start book", Offset: -1}
}

// NewChapterOrder reports an end chapter before the start chapter.
func NewChapterOrder() *ReferenceError {
	return &ReferenceError{Kind: KindOrder, Message: "End chapter must come after start chapter", Offset: -1}
}

// NewVerseOrder reports an end verse before the start verse.
func NewVerseOrder() *ReferenceError {
	return &ReferenceError{Kind: KindOrder, Message: "End verse must come after start verse", Offset: -1}
}

// NewChapterBounds reports a chapter outside 1..chapters of book.
func NewChapterBounds(book string, chapters int) *ReferenceError {
	return &ReferenceError{
		Kind:    KindBounds,
		Message: fmt.Sprintf("%s only has %d chapters", book, chapters),
		Offset:  -1,
	}
}

// NewVerseBounds reports a verse outside 1..verses of the given chapter.
// Single-chapter books omit the chapter from the message.
func NewVerseBounds(book string, chapter, verses int, singleChapter bool) *ReferenceError {
	msg := fmt.Sprintf("%s %d only has %d verses", book, chapter, verses)
	if singleChapter {
		msg = fmt.Sprintf("%s only has %d verses", book, verses)
	}
	return &ReferenceError{Kind: KindBounds, Message: msg, Offset: -1}
}

// NewCodecError reports an encoded book number outside the canon.
func NewCodecError() *ReferenceError {
	return &ReferenceError{Kind: KindCodec, Message: "Invalid book number", Offset: -1}
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// NewParse creates a ParseError
func NewParse(format, path, message string) *ParseError {
	return &ParseError{
		Format:  format,
		Path:    path,
		Message: message,
	}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// AsReference returns the ReferenceError in err's chain, if any.
func AsReference(err error) (*ReferenceError, bool) {
	var re *ReferenceError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
