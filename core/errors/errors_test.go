package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestReferenceError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ReferenceError
		wantMsg  string
		wantBase error
	}{
		{"no reference", NewNoReference(), "No reference found", ErrNoReference},
		{"syntax", NewSyntax(4), "No valid reference found", ErrInvalidReference},
		{"shape", NewShape(), "No valid reference found", ErrInvalidReference},
		{"book order", NewBookOrder(), "End book must come after start book", ErrOrder},
		{"chapter order", NewChapterOrder(), "End chapter must come after start chapter", ErrOrder},
		{"verse order", NewVerseOrder(), "End verse must come after start verse", ErrOrder},
		{"chapter bounds", NewChapterBounds("Genesis", 50), "Genesis only has 50 chapters", ErrBounds},
		{"verse bounds", NewVerseBounds("Genesis", 1, 31, false), "Genesis 1 only has 31 verses", ErrBounds},
		{"single chapter verse bounds", NewVerseBounds("Jude", 1, 25, true), "Jude only has 25 verses", ErrBounds},
		{"codec", NewCodecError(), "Invalid book number", ErrInvalidBook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, tt.wantBase) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.wantBase)
			}
		})
	}

	t.Run("syntax offset", func(t *testing.T) {
		if got := NewSyntax(7).Offset; got != 7 {
			t.Errorf("Offset = %d, want 7", got)
		}
		if got := NewShape().Offset; got != -1 {
			t.Errorf("Offset = %d, want -1", got)
		}
	})
}

func TestAsReference(t *testing.T) {
	wrapped := fmt.Errorf("parse %q: %w", "Jude 32", NewVerseBounds("Jude", 1, 25, true))
	re, ok := AsReference(wrapped)
	if !ok {
		t.Fatal("AsReference() found no ReferenceError")
	}
	if re.Kind != KindBounds {
		t.Errorf("Kind = %v, want %v", re.Kind, KindBounds)
	}
	if _, ok := AsReference(fmt.Errorf("plain")); ok {
		t.Error("AsReference() matched a plain error")
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		wantMsg  string
		wantBase error
	}{
		{
			name:     "with ID",
			err:      &NotFoundError{Resource: "collection", ID: "advent"},
			wantMsg:  "collection not found: advent",
			wantBase: ErrNotFound,
		},
		{
			name:     "without ID",
			err:      &NotFoundError{Resource: "book"},
			wantMsg:  "book not found",
			wantBase: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantBase) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantBase)
			}
		})
	}

	t.Run("with underlying error", func(t *testing.T) {
		underlyingErr := fmt.Errorf("sql: no rows in result set")
		err := &NotFoundError{Resource: "collection", ID: "lent", Err: underlyingErr}
		if got := err.Unwrap(); got != underlyingErr {
			t.Errorf("Unwrap() = %v, want %v", got, underlyingErr)
		}
	})
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ValidationError
		wantMsg string
	}{
		{
			name:    "with field",
			err:     &ValidationError{Field: "name", Message: "must not be empty"},
			wantMsg: "validation failed for name: must not be empty",
		},
		{
			name:    "without field",
			err:     &ValidationError{Message: "invalid format"},
			wantMsg: "validation failed: invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("Unwrap() = %v, want %v", tt.err.Unwrap(), ErrInvalidInput)
			}
		})
	}
}

func TestIOError(t *testing.T) {
	baseErr := fmt.Errorf("permission denied")
	tests := []struct {
		name    string
		err     *IOError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &IOError{Operation: "read", Path: "/tmp/advent.refs.tar.xz", Err: baseErr},
			wantMsg: "failed to read /tmp/advent.refs.tar.xz: permission denied",
		},
		{
			name:    "without path",
			err:     &IOError{Operation: "write", Err: baseErr},
			wantMsg: "failed to write: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, baseErr) {
				t.Errorf("Unwrap() = %v, want %v", got, baseErr)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ParseError
		wantMsg string
	}{
		{
			name:    "with path",
			err:     &ParseError{Format: "JSON", Path: "manifest.json", Message: "unexpected EOF"},
			wantMsg: "failed to parse JSON at manifest.json: unexpected EOF",
		},
		{
			name:    "without path",
			err:     &ParseError{Format: "OSIS", Message: "malformed osisRef"},
			wantMsg: "failed to parse OSIS: malformed osisRef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrInvalidInput) {
				t.Errorf("Unwrap() = %v, want %v", tt.err.Unwrap(), ErrInvalidInput)
			}
		})
	}
}

func TestHelperFunctions(t *testing.T) {
	t.Run("NewNotFound", func(t *testing.T) {
		err := NewNotFound("collection", "test-id")
		if err.Resource != "collection" || err.ID != "test-id" {
			t.Errorf("NewNotFound() = %+v, want Resource=collection, ID=test-id", err)
		}
	})

	t.Run("NewValidation", func(t *testing.T) {
		err := NewValidation("name", "must not be empty")
		if err.Field != "name" || err.Message != "must not be empty" {
			t.Errorf("NewValidation() = %+v, unexpected values", err)
		}
	})

	t.Run("NewIO", func(t *testing.T) {
		baseErr := fmt.Errorf("disk full")
		err := NewIO("write", "/tmp/test", baseErr)
		if err.Operation != "write" || err.Path != "/tmp/test" || err.Err != baseErr {
			t.Errorf("NewIO() = %+v, unexpected values", err)
		}
	})

	t.Run("NewParse", func(t *testing.T) {
		err := NewParse("YAML", "plan.yaml", "invalid syntax")
		if err.Format != "YAML" || err.Path != "plan.yaml" || err.Message != "invalid syntax" {
			t.Errorf("NewParse() = %+v, unexpected values", err)
		}
	})
}

func TestWrap(t *testing.T) {
	t.Run("wraps error", func(t *testing.T) {
		baseErr := fmt.Errorf("base error")
		wrapped := Wrap(baseErr, "context message")
		if !errors.Is(wrapped, baseErr) {
			t.Errorf("Wrap() error does not unwrap to base error")
		}
		wantMsg := "context message: base error"
		if wrapped.Error() != wantMsg {
			t.Errorf("Wrap() = %q, want %q", wrapped.Error(), wantMsg)
		}
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		if got := Wrap(nil, "context"); got != nil {
			t.Errorf("Wrap(nil) = %v, want nil", got)
		}
		if got := Wrapf(nil, "context %s", "test"); got != nil {
			t.Errorf("Wrapf(nil) = %v, want nil", got)
		}
	})

	t.Run("wrapf keeps reference sentinel", func(t *testing.T) {
		wrapped := Wrapf(NewChapterOrder(), "parse %q", "Mark 2-1")
		if !Is(wrapped, ErrOrder) {
			t.Errorf("Wrapf() lost ErrOrder: %v", wrapped)
		}
	})
}
