package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/FocuswithJustin/bibleref/core/canon"
	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/osis"
	"github.com/FocuswithJustin/bibleref/core/passage"
	"github.com/FocuswithJustin/bibleref/internal/api"
)

// ParseCmd resolves free text to a reference.
type ParseCmd struct {
	Text []string `arg:"" help:"Reference text, e.g. \"jn 3:16\""`
	JSON bool     `help:"Print the full reference as JSON"`
}

func (c *ParseCmd) Run() error {
	ref, err := passage.FromString(strings.Join(c.Text, " "))
	if err != nil {
		return err
	}
	if c.JSON {
		return writeJSON(api.NewReferenceInfo(ref))
	}
	fmt.Fprintln(stdout, ref)
	return nil
}

// FormatCmd builds a reference from explicit start and end points.
type FormatCmd struct {
	Start string `required:"" help:"Start point as BOOK.CHAPTER.VERSE (e.g. Gen.1.1)"`
	End   string `required:"" help:"End point as BOOK.CHAPTER.VERSE"`
}

func (c *FormatCmd) Run() error {
	sb, sc, sv, err := parsePoint(c.Start)
	if err != nil {
		return err
	}
	eb, ec, ev, err := parsePoint(c.End)
	if err != nil {
		return err
	}
	ref, err := passage.New(sb, sc, sv, eb, ec, ev)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, ref)
	return nil
}

// parsePoint reads BOOK.CHAPTER.VERSE, where BOOK is an OSIS ID or any
// recognized book name.
func parsePoint(s string) (canon.Book, int, int, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return 0, 0, 0, errors.NewValidation("point", fmt.Sprintf("%q is not BOOK.CHAPTER.VERSE", s))
	}
	b, ok := canon.FromOSIS(parts[0])
	if !ok {
		if b, ok = canon.MatchName(parts[0]); !ok {
			return 0, 0, 0, errors.NewNotFound("book", parts[0])
		}
	}
	chapter, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, errors.NewValidation("chapter", fmt.Sprintf("%q is not a number", parts[1]))
	}
	verse, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, errors.NewValidation("verse", fmt.Sprintf("%q is not a number", parts[2]))
	}
	return b, chapter, verse, nil
}

// EncodeCmd prints the integer pair for a reference.
type EncodeCmd struct {
	Text []string `arg:"" help:"Reference text"`
}

func (c *EncodeCmd) Run() error {
	ref, err := passage.FromString(strings.Join(c.Text, " "))
	if err != nil {
		return err
	}
	p := passage.Encode(ref)
	fmt.Fprintf(stdout, "%d %d\n", p.Start, p.End)
	return nil
}

// DecodeCmd prints the reference for an integer pair.
type DecodeCmd struct {
	Start int `arg:"" help:"Encoded start"`
	End   int `arg:"" help:"Encoded end"`
}

func (c *DecodeCmd) Run() error {
	ref, err := passage.Decode(passage.EncodedPair{Start: c.Start, End: c.End})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, ref)
	return nil
}

// BooksCmd lists the canon.
type BooksCmd struct {
	Testament string `short:"t" help:"Only list one testament (OT or NT)"`
}

func (c *BooksCmd) Run() error {
	testament := strings.ToUpper(c.Testament)
	if testament != "" && testament != "OT" && testament != "NT" {
		return errors.NewValidation("testament", "must be OT or NT")
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tOSIS\tNAME\tCHAPTERS\tVERSES")
	for _, b := range canon.All() {
		if testament != "" && b.Testament().String() != testament {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", canon.Index(b), b.OSIS(), b, canon.NumChapters(b), canon.TotalVerses(b))
	}
	return tw.Flush()
}

// OSISGroup contains OSIS conversions.
type OSISGroup struct {
	To      OSISToCmd      `cmd:"" help:"Convert reference text to an OSIS reference"`
	From    OSISFromCmd    `cmd:"" help:"Convert an OSIS reference to canonical text"`
	Extract OSISExtractCmd `cmd:"" help:"List the osisRef attributes of an OSIS XML document"`
}

// OSISToCmd converts text to OSIS.
type OSISToCmd struct {
	Text []string `arg:"" help:"Reference text"`
}

func (c *OSISToCmd) Run() error {
	ref, err := passage.FromString(strings.Join(c.Text, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, osis.Format(ref))
	return nil
}

// OSISFromCmd converts OSIS to text.
type OSISFromCmd struct {
	Ref string `arg:"" help:"OSIS reference, e.g. Gen.1.1-Gen.1.5"`
}

func (c *OSISFromCmd) Run() error {
	ref, err := osis.Parse(c.Ref)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, ref)
	return nil
}

// OSISExtractCmd lists references found in an OSIS document.
type OSISExtractCmd struct {
	Path string `arg:"" help:"OSIS XML file" type:"existingfile"`
}

func (c *OSISExtractCmd) Run() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return errors.NewIO("open", c.Path, err)
	}
	defer f.Close()

	matches, err := osis.ExtractRefs(f)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tELEMENT\tOSISREF\tREFERENCE")
	for _, m := range matches {
		text := m.Reference.String()
		if m.Err != nil {
			text = "error: " + m.Err.Error()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Line, m.Element, m.Raw, text)
	}
	return tw.Flush()
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
