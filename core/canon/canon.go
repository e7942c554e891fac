// Package canon holds the fixed 66-book Protestant canon: display names,
// OSIS identifiers, recognized name aliases and verse counts per chapter.
//
// The registry is immutable after package initialization and safe for
// concurrent use.
package canon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/FocuswithJustin/bibleref/core/errors"
)

// Count is the number of books in the registry.
const Count = 66

// Book identifies a book of the canon. Valid values are 1 (Genesis) through
// 66 (Revelation); the zero value is not a book.
type Book int

// Books in canonical order.
const (
	Genesis Book = iota + 1
	Exodus
	Leviticus
	Numbers
	Deuteronomy
	Joshua
	Judges
	Ruth
	Samuel1
	Samuel2
	Kings1
	Kings2
	Chronicles1
	Chronicles2
	Ezra
	Nehemiah
	Esther
	Job
	Psalms
	Proverbs
	Ecclesiastes
	SongOfSolomon
	Isaiah
	Jeremiah
	Lamentations
	Ezekiel
	Daniel
	Hosea
	Joel
	Amos
	Obadiah
	Jonah
	Micah
	Nahum
	Habakkuk
	Zephaniah
	Haggai
	Zechariah
	Malachi
	Matthew
	Mark
	Luke
	John
	Acts
	Romans
	Corinthians1
	Corinthians2
	Galatians
	Ephesians
	Philippians
	Colossians
	Thessalonians1
	Thessalonians2
	Timothy1
	Timothy2
	Titus
	Philemon
	Hebrews
	James
	Peter1
	Peter2
	John1
	John2
	John3
	Jude
	Revelation
)

// Testament partitions the canon.
type Testament int

const (
	OldTestament Testament = iota + 1
	NewTestament
)

// String returns "OT" or "NT".
func (t Testament) String() string {
	switch t {
	case OldTestament:
		return "OT"
	case NewTestament:
		return "NT"
	}
	return fmt.Sprintf("Testament(%d)", int(t))
}

type entry struct {
	Book    Book
	Name    string
	OSIS    string
	Aliases string
	Verses  []int
}

// Valid reports whether b is one of the 66 books.
func (b Book) Valid() bool {
	return b >= Genesis && b <= Revelation
}

// String returns the canonical display name, e.g. "1 John".
func (b Book) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Book(%d)", int(b))
	}
	return books[b-1].Name
}

// OSIS returns the OSIS book identifier, e.g. "1John".
func (b Book) OSIS() string {
	if !b.Valid() {
		return ""
	}
	return books[b-1].OSIS
}

// Testament returns the testament the book belongs to.
func (b Book) Testament() Testament {
	if b >= Matthew {
		return NewTestament
	}
	return OldTestament
}

// Index returns the 1-based position of b in canonical order.
func Index(b Book) int {
	return int(b)
}

// FromIndex returns the book at 1-based position i.
func FromIndex(i int) (Book, error) {
	if i < 1 || i > Count {
		return 0, errors.NewCodecError()
	}
	return Book(i), nil
}

// All returns every book in canonical order.
func All() []Book {
	all := make([]Book, Count)
	for i := range all {
		all[i] = Book(i + 1)
	}
	return all
}

// NumChapters returns the number of chapters in b, or 0 if b is invalid.
func NumChapters(b Book) int {
	if !b.Valid() {
		return 0
	}
	return len(books[b-1].Verses)
}

// NumVerses returns the number of verses in the given chapter of b. It
// returns 0 when the chapter is out of range.
func NumVerses(b Book, chapter int) int {
	if chapter < 1 || chapter > NumChapters(b) {
		return 0
	}
	return books[b-1].Verses[chapter-1]
}

// TotalVerses returns the number of verses in the whole book.
func TotalVerses(b Book) int {
	total := 0
	for c := 1; c <= NumChapters(b); c++ {
		total += NumVerses(b, c)
	}
	return total
}

// SingleChapter reports whether b has exactly one chapter. In such books a
// bare number after the book name is a verse, not a chapter.
func SingleChapter(b Book) bool {
	return NumChapters(b) == 1
}

var osisIndex = func() map[string]Book {
	m := make(map[string]Book, Count)
	for _, e := range books {
		m[strings.ToLower(e.OSIS)] = e.Book
	}
	return m
}()

// FromOSIS looks up a book by its OSIS identifier. The lookup ignores case.
func FromOSIS(id string) (Book, bool) {
	b, ok := osisIndex[strings.ToLower(id)]
	return b, ok
}

// matchOrder is the alias matching priority. It is canonical order except
// that Philemon is tried before Philippians, whose "phil" alias is a prefix
// of "philemon", and the numbered epistles of John are tried before the
// Gospel.
var matchOrder = func() []Book {
	order := make([]Book, 0, Count)
	for _, b := range All() {
		switch b {
		case John:
			order = append(order, John1, John2, John3, John)
		case John1, John2, John3:
		case Philippians:
			order = append(order, Philemon, Philippians)
		case Philemon:
		default:
			order = append(order, b)
		}
	}
	return order
}()

// aliasPattern returns the alias alternation for b, including an optional
// abbreviation period.
func aliasPattern(b Book) string {
	return `(?:` + books[b-1].Aliases + `)\.?`
}

var (
	exactPatterns  [Count]*regexp.Regexp
	prefixPatterns [Count]*regexp.Regexp
)

func init() {
	for _, b := range All() {
		exactPatterns[b-1] = regexp.MustCompile(`^` + aliasPattern(b) + `$`)
		prefixPatterns[b-1] = regexp.MustCompile(`^` + aliasPattern(b))
	}
}

// AliasPattern returns a regular expression alternation matching the name
// of any book, with alternatives in matching priority. It is intended for
// lower-cased input.
func AliasPattern() string {
	parts := make([]string, len(matchOrder))
	for i, b := range matchOrder {
		parts[i] = aliasPattern(b)
	}
	return strings.Join(parts, "|")
}

// MatchName returns the book whose alias matches the whole of text. Case and
// surrounding whitespace are ignored.
func MatchName(text string) (Book, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	for _, b := range matchOrder {
		if exactPatterns[b-1].MatchString(s) {
			return b, true
		}
	}
	return 0, false
}

// MatchPrefix matches a book name at the start of lower-cased text and
// returns the book and the number of bytes consumed.
func MatchPrefix(text string) (Book, int, bool) {
	for _, b := range matchOrder {
		if loc := prefixPatterns[b-1].FindStringIndex(text); loc != nil {
			return b, loc[1], true
		}
	}
	return 0, 0, false
}
