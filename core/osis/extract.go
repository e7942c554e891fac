package osis

import (
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/passage"
)

// refSelector selects every element carrying an osisRef attribute.
var refSelector = xpath.MustCompile("//*[@osisRef]")

// Match is one osisRef found in a document. Err is set when the value could
// not be parsed; extraction continues past it.
type Match struct {
	Element   string
	Line      int
	Raw       string
	Reference passage.Reference
	Err       error
}

// ExtractRefs parses an OSIS XML document and returns every reference named
// by an osisRef attribute, in document order. An attribute may hold several
// space-separated references, each optionally prefixed with a work name
// ("Bible.KJV:Gen.1.1") or suffixed with a grain ("Gen.1.1!a").
func ExtractRefs(r io.Reader) ([]Match, error) {
	doc, err := xmlquery.ParseWithOptions(r, xmlquery.ParserOptions{WithLineNumbers: true})
	if err != nil {
		return nil, errors.NewParse("XML", "", err.Error())
	}

	var matches []Match
	for _, node := range xmlquery.QuerySelectorAll(doc, refSelector) {
		for _, raw := range strings.Fields(node.SelectAttr("osisRef")) {
			m := Match{Element: node.Data, Line: node.LineNumber, Raw: raw}
			m.Reference, m.Err = Parse(clean(raw))
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// clean strips the work prefix and grain suffix from one osisRef value.
// Ranges repeat the prefix on each side, so both sides are cleaned.
func clean(raw string) string {
	sides := strings.SplitN(raw, "-", 2)
	for i, s := range sides {
		if j := strings.LastIndex(s, ":"); j >= 0 {
			s = s[j+1:]
		}
		if j := strings.Index(s, "!"); j >= 0 {
			s = s[:j]
		}
		sides[i] = s
	}
	return strings.Join(sides, "-")
}
