package passage

import (
	"strings"

	"github.com/FocuswithJustin/bibleref/core/canon"
	"github.com/FocuswithJustin/bibleref/core/errors"
)

// point is one end of a candidate reference.
type point struct {
	book    canon.Book
	chapter int
	verse   int
}

func span(start, end point) Reference {
	return Reference{
		startBook:    start.book,
		startChapter: start.chapter,
		startVerse:   start.verse,
		endBook:      end.book,
		endChapter:   end.chapter,
		endVerse:     end.verse,
	}
}

// lastVerse is the final verse of a chapter. A chapter that does not exist
// gets verse 1 so that validation reports the chapter bound rather than a
// verse order.
func lastVerse(b canon.Book, chapter int) int {
	if n := canon.NumVerses(b, chapter); n > 0 {
		return n
	}
	return 1
}

func bookStart(b canon.Book) point { return point{b, 1, 1} }

func bookEnd(b canon.Book) point {
	c := canon.NumChapters(b)
	return point{b, c, lastVerse(b, c)}
}

// bareStart and bareEnd interpret a number written without a colon. In a
// single-chapter book it is a verse of chapter 1; otherwise it is a whole
// chapter.
func bareStart(b canon.Book, n int) point {
	if canon.SingleChapter(b) {
		return point{b, 1, n}
	}
	return point{b, n, 1}
}

func bareEnd(b canon.Book, n int) point {
	if canon.SingleChapter(b) {
		return point{b, 1, n}
	}
	return point{b, n, lastVerse(b, n)}
}

type shape struct {
	pattern string
	build   func(t []Token) Reference
}

// shapes lists every accepted token sequence. B is a book, N a number.
var shapes = []shape{
	{"B", func(t []Token) Reference {
		return span(bookStart(t[0].Book), bookEnd(t[0].Book))
	}},
	{"B N", func(t []Token) Reference {
		return span(bareStart(t[0].Book, t[1].Number), bareEnd(t[0].Book, t[1].Number))
	}},
	{"B N : N", func(t []Token) Reference {
		p := point{t[0].Book, t[1].Number, t[3].Number}
		return span(p, p)
	}},
	{"B N : N - N", func(t []Token) Reference {
		b, c := t[0].Book, t[1].Number
		return span(point{b, c, t[3].Number}, point{b, c, t[5].Number})
	}},
	{"B N : N - N : N", func(t []Token) Reference {
		b := t[0].Book
		return span(point{b, t[1].Number, t[3].Number}, point{b, t[5].Number, t[7].Number})
	}},
	{"B N - N", func(t []Token) Reference {
		b := t[0].Book
		return span(bareStart(b, t[1].Number), bareEnd(b, t[3].Number))
	}},
	{"B N - B N", func(t []Token) Reference {
		return span(bareStart(t[0].Book, t[1].Number), bareEnd(t[3].Book, t[4].Number))
	}},
	{"B N : N - B N", func(t []Token) Reference {
		return span(point{t[0].Book, t[1].Number, t[3].Number}, bareEnd(t[5].Book, t[6].Number))
	}},
	{"B N : N - B N : N", func(t []Token) Reference {
		return span(point{t[0].Book, t[1].Number, t[3].Number}, point{t[5].Book, t[6].Number, t[8].Number})
	}},
	{"B N - B N : N", func(t []Token) Reference {
		return span(bareStart(t[0].Book, t[1].Number), point{t[3].Book, t[4].Number, t[6].Number})
	}},
	{"B - B N", func(t []Token) Reference {
		return span(bookStart(t[0].Book), bareEnd(t[2].Book, t[3].Number))
	}},
	{"B - B", func(t []Token) Reference {
		return span(bookStart(t[0].Book), bookEnd(t[2].Book))
	}},
}

// signature renders the kinds of tokens as a shape pattern.
func signature(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		switch t.Kind {
		case BookToken:
			parts[i] = "B"
		case NumberToken:
			parts[i] = "N"
		case DashToken:
			parts[i] = "-"
		case ColonToken:
			parts[i] = ":"
		}
	}
	return strings.Join(parts, " ")
}

// resolve turns a token sequence into a validated reference.
func resolve(tokens []Token) (Reference, error) {
	if len(tokens) == 0 {
		return Reference{}, errors.NewNoReference()
	}
	sig := signature(tokens)
	for _, s := range shapes {
		if s.pattern == sig {
			return Validate(s.build(tokens))
		}
	}
	return Reference{}, errors.NewShape()
}
