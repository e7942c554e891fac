// Package osis converts references to and from OSIS reference syntax
// ("Gen.1.1", "Matt.5.3-Matt.5.12") and extracts osisRef attributes from
// OSIS XML documents.
package osis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/bibleref/core/canon"
	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/passage"
)

// osisGrammar is a single OSIS reference or a range of two.
// Examples: "Gen", "Gen.1", "Gen.1.1", "Gen.1.1-Exod.5.23", "1John-Jude"
type osisGrammar struct {
	Start *osisPoint `parser:"@@"`
	End   *osisPoint `parser:"( \"-\" @@ )?"`
}

type osisPoint struct {
	Book    string       `parser:"@Ident"`
	Chapter *osisChapter `parser:"( \".\" @@ )?"`
}

type osisChapter struct {
	Number int  `parser:"@Int"`
	Verse  *int `parser:"( \".\" @Int )?"`
}

var osisLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[1-3]?[A-Za-z]+`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[.\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var osisParser = participle.MustBuild[osisGrammar](
	participle.Lexer(osisLexer),
	participle.Elide("Whitespace"),
)

// Parse reads an OSIS reference. Omitted chapters and verses widen the
// reference to the whole book or chapter. Unlike free text, a number after
// a single-chapter book is always a chapter.
func Parse(s string) (passage.Reference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return passage.Reference{}, errors.NewParse("OSIS", "", "empty reference")
	}
	g, err := osisParser.ParseString("", s)
	if err != nil {
		return passage.Reference{}, &errors.ParseError{
			Format:  "OSIS",
			Message: fmt.Sprintf("%q", s),
			Err:     fmt.Errorf("%w: %v", errors.ErrInvalidInput, err),
		}
	}

	sb, err := lookup(g.Start.Book)
	if err != nil {
		return passage.Reference{}, err
	}
	end := g.Start
	if g.End != nil {
		end = g.End
	}
	eb, err := lookup(end.Book)
	if err != nil {
		return passage.Reference{}, err
	}

	sc, sv := 1, 1
	if c := g.Start.Chapter; c != nil {
		sc = c.Number
		if c.Verse != nil {
			sv = *c.Verse
		}
	}

	ec := canon.NumChapters(eb)
	if end.Chapter != nil {
		ec = end.Chapter.Number
	}
	// A missing chapter has no last verse; use 1 so that validation
	// reports the chapter bound.
	ev := max(canon.NumVerses(eb, ec), 1)
	if end.Chapter != nil && end.Chapter.Verse != nil {
		ev = *end.Chapter.Verse
	}
	return passage.New(sb, sc, sv, eb, ec, ev)
}

func lookup(id string) (canon.Book, error) {
	b, ok := canon.FromOSIS(id)
	if !ok {
		return 0, errors.NewNotFound("book", id)
	}
	return b, nil
}

type granularity int

const (
	verseLevel granularity = iota
	chapterLevel
	bookLevel
)

// Format renders r in OSIS syntax using the coarsest granularity that
// describes it exactly: whole books, whole chapters or verses.
func Format(r passage.Reference) string {
	if r.IsZero() {
		return ""
	}
	sb, eb := r.StartBook(), r.EndBook()
	sc, ec := r.StartChapter(), r.EndChapter()
	sv, ev := r.StartVerse(), r.EndVerse()

	g := verseLevel
	if sv == 1 && ev == canon.NumVerses(eb, ec) {
		g = chapterLevel
		if sc == 1 && ec == canon.NumChapters(eb) {
			g = bookLevel
		}
	}

	var start, end string
	switch g {
	case bookLevel:
		start, end = sb.OSIS(), eb.OSIS()
	case chapterLevel:
		start = sb.OSIS() + "." + strconv.Itoa(sc)
		end = eb.OSIS() + "." + strconv.Itoa(ec)
	default:
		start = sb.OSIS() + "." + strconv.Itoa(sc) + "." + strconv.Itoa(sv)
		end = eb.OSIS() + "." + strconv.Itoa(ec) + "." + strconv.Itoa(ev)
	}
	if start == end {
		return start
	}
	return start + "-" + end
}
