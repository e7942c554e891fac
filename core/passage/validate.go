package passage

import (
	"github.com/FocuswithJustin/bibleref/core/canon"
	"github.com/FocuswithJustin/bibleref/core/errors"
)

// Validate checks that r is ordered and that every chapter and verse it
// names exists. Checks run in a fixed order and the first failure is
// returned: book order, chapter order, verse order, chapter bounds (start
// then end), verse bounds (start then end).
func Validate(r Reference) (Reference, error) {
	if !r.startBook.Valid() || !r.endBook.Valid() {
		return Reference{}, errors.NewCodecError()
	}

	if canon.Index(r.startBook) > canon.Index(r.endBook) {
		return Reference{}, errors.NewBookOrder()
	}
	if r.startBook == r.endBook && r.startChapter > r.endChapter {
		return Reference{}, errors.NewChapterOrder()
	}
	if r.startBook == r.endBook && r.startChapter == r.endChapter && r.startVerse > r.endVerse {
		return Reference{}, errors.NewVerseOrder()
	}

	if err := checkChapter(r.startBook, r.startChapter); err != nil {
		return Reference{}, err
	}
	if err := checkChapter(r.endBook, r.endChapter); err != nil {
		return Reference{}, err
	}
	if err := checkVerse(r.startBook, r.startChapter, r.startVerse); err != nil {
		return Reference{}, err
	}
	if err := checkVerse(r.endBook, r.endChapter, r.endVerse); err != nil {
		return Reference{}, err
	}
	return r, nil
}

func checkChapter(b canon.Book, chapter int) error {
	if n := canon.NumChapters(b); chapter < 1 || chapter > n {
		return errors.NewChapterBounds(b.String(), n)
	}
	return nil
}

func checkVerse(b canon.Book, chapter, verse int) error {
	if n := canon.NumVerses(b, chapter); verse < 1 || verse > n {
		return errors.NewVerseBounds(b.String(), chapter, n, canon.SingleChapter(b))
	}
	return nil
}
