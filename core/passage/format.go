package passage

import (
	"strconv"

	"github.com/FocuswithJustin/bibleref/core/canon"
)

// Format returns the shortest canonical text for r. The result parses back
// to r with FromString. Format of the zero Reference is the empty string.
func Format(r Reference) string {
	if r.IsZero() {
		return ""
	}
	if r.startBook == r.endBook {
		name := r.startBook.String()
		switch {
		case canon.SingleChapter(r.startBook):
			return name + " " + verseRange(r.startVerse, r.endVerse)
		case r.startChapter == r.endChapter:
			return name + " " + strconv.Itoa(r.startChapter) + ":" + verseRange(r.startVerse, r.endVerse)
		default:
			return name + " " + chapterVerse(r.startChapter, r.startVerse) + "-" + chapterVerse(r.endChapter, r.endVerse)
		}
	}
	return side(r.startBook, r.startChapter, r.startVerse) + " - " + side(r.endBook, r.endChapter, r.endVerse)
}

// String implements fmt.Stringer.
func (r Reference) String() string {
	return Format(r)
}

func side(b canon.Book, chapter, verse int) string {
	if canon.SingleChapter(b) {
		return b.String() + " " + strconv.Itoa(verse)
	}
	return b.String() + " " + chapterVerse(chapter, verse)
}

func chapterVerse(chapter, verse int) string {
	return strconv.Itoa(chapter) + ":" + strconv.Itoa(verse)
}

func verseRange(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}
