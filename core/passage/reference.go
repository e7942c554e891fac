// Package passage resolves free-text Bible citations such as "Gen 1:1" or
// "Matthew 1 - Jude 12" into validated references, formats references back
// to their shortest canonical text and encodes them as sortable integers.
//
// Every function in this package is pure and safe for concurrent use.
package passage

import (
	"strings"

	"github.com/FocuswithJustin/bibleref/core/canon"
)

// Reference is a validated, inclusive range of verses. A Reference can only
// be obtained through FromString, Decode, New or Validate, so a non-zero
// value always names verses that exist.
type Reference struct {
	startBook    canon.Book
	startChapter int
	startVerse   int
	endBook      canon.Book
	endChapter   int
	endVerse     int
}

// FromString parses exactly one reference occupying the whole of text.
// Case and surrounding whitespace are ignored.
func FromString(text string) (Reference, error) {
	tokens, err := Tokenize(strings.ToLower(strings.TrimSpace(text)))
	if err != nil {
		return Reference{}, err
	}
	return resolve(tokens)
}

// New builds a reference from explicit components and validates it.
func New(startBook canon.Book, startChapter, startVerse int, endBook canon.Book, endChapter, endVerse int) (Reference, error) {
	return Validate(Reference{
		startBook:    startBook,
		startChapter: startChapter,
		startVerse:   startVerse,
		endBook:      endBook,
		endChapter:   endChapter,
		endVerse:     endVerse,
	})
}

func (r Reference) StartBook() canon.Book { return r.startBook }
func (r Reference) EndBook() canon.Book   { return r.endBook }
func (r Reference) StartChapter() int     { return r.startChapter }
func (r Reference) EndChapter() int       { return r.endChapter }
func (r Reference) StartVerse() int       { return r.startVerse }
func (r Reference) EndVerse() int         { return r.endVerse }

// StartBookName returns the display name of the first book.
func (r Reference) StartBookName() string { return r.startBook.String() }

// EndBookName returns the display name of the last book.
func (r Reference) EndBookName() string { return r.endBook.String() }

// IsZero reports whether r is the zero Reference.
func (r Reference) IsZero() bool {
	return r == Reference{}
}

// Contains reports whether every verse of other lies within r.
func (r Reference) Contains(other Reference) bool {
	a, b := Encode(r), Encode(other)
	return a.Start <= b.Start && b.End <= a.End
}

// Overlaps reports whether r and other share at least one verse.
func (r Reference) Overlaps(other Reference) bool {
	a, b := Encode(r), Encode(other)
	return a.Start <= b.End && b.Start <= a.End
}

// VerseCount returns the number of verses covered by r.
func (r Reference) VerseCount() int {
	if r.IsZero() {
		return 0
	}
	count := 0
	for b := r.startBook; b <= r.endBook; b++ {
		first, last := 1, canon.NumChapters(b)
		if b == r.startBook {
			first = r.startChapter
		}
		if b == r.endBook {
			last = r.endChapter
		}
		for c := first; c <= last; c++ {
			from, to := 1, canon.NumVerses(b, c)
			if b == r.startBook && c == r.startChapter {
				from = r.startVerse
			}
			if b == r.endBook && c == r.endChapter {
				to = r.endVerse
			}
			count += to - from + 1
		}
	}
	return count
}

// Compare orders references by their first verse, then by their last.
// It returns -1, 0 or +1.
func Compare(a, b Reference) int {
	ea, eb := Encode(a), Encode(b)
	switch {
	case ea.Start < eb.Start:
		return -1
	case ea.Start > eb.Start:
		return 1
	case ea.End < eb.End:
		return -1
	case ea.End > eb.End:
		return 1
	}
	return 0
}

// MarshalText implements encoding.TextMarshaler using the canonical form.
func (r Reference) MarshalText() ([]byte, error) {
	if r.IsZero() {
		return []byte{}, nil
	}
	return []byte(Format(r)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Reference) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*r = Reference{}
		return nil
	}
	ref, err := FromString(string(text))
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// NumChapters returns the number of chapters in book.
func NumChapters(book canon.Book) int {
	return canon.NumChapters(book)
}

// NumVerses returns the number of verses in chapter of book, or 0 when the
// chapter does not exist.
func NumVerses(book canon.Book, chapter int) int {
	return canon.NumVerses(book, chapter)
}
