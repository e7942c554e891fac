package passage

import (
	"github.com/FocuswithJustin/bibleref/core/canon"
)

const (
	bookFactor    = 1_000_000
	chapterFactor = 1_000
)

// EncodedPair is the integer form of a Reference. Each value is
// book*1,000,000 + chapter*1,000 + verse, so pairs sort in canonical order.
type EncodedPair struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Encode returns the integer form of r.
func Encode(r Reference) EncodedPair {
	return EncodedPair{
		Start: encodePoint(r.startBook, r.startChapter, r.startVerse),
		End:   encodePoint(r.endBook, r.endChapter, r.endVerse),
	}
}

func encodePoint(b canon.Book, chapter, verse int) int {
	return canon.Index(b)*bookFactor + chapter*chapterFactor + verse
}

// Decode rebuilds a Reference from its integer form. Book numbers outside
// the canon fail with "Invalid book number"; anything else is checked by
// Validate.
func Decode(p EncodedPair) (Reference, error) {
	start, err := decodePoint(p.Start)
	if err != nil {
		return Reference{}, err
	}
	end, err := decodePoint(p.End)
	if err != nil {
		return Reference{}, err
	}
	return Validate(span(start, end))
}

func decodePoint(v int) (point, error) {
	b, err := canon.FromIndex(v / bookFactor)
	if err != nil {
		return point{}, err
	}
	return point{
		book:    b,
		chapter: (v / chapterFactor) % chapterFactor,
		verse:   v % chapterFactor,
	}, nil
}
