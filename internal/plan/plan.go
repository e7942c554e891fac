// Package plan imports reading plans. A plan is YAML with a name and a list
// of readings, or a YAML frontmatter block followed by one reading per line.
//
//	name: Gospels in a month
//	readings:
//	  - Matthew 1-4
//	  - Matthew 5-7
//
// Readings that fail to resolve are reported together; the rest of the plan
// is still returned.
package plan

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/passage"
	"github.com/FocuswithJustin/bibleref/internal/logging"
	"github.com/FocuswithJustin/bibleref/internal/validation"
)

// Plan is a named, ordered list of readings.
type Plan struct {
	Name        string
	Description string
	Readings    []Reading
}

// Reading is one resolved line of a plan.
type Reading struct {
	Line      int // 1-based position in the readings list, or line in the file for frontmatter plans
	Text      string
	Reference passage.Reference
}

// LineError reports a reading that did not resolve.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

type document struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Readings    []string `yaml:"readings"`
}

// header is the frontmatter of a line-per-reading plan. Its readings live
// in the body, so the header has no readings field.
type header struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

var fence = []byte("---\n")

// splitFrontmatter splits data after its opening fence into the header and
// the body, and returns the file line of the first body line.
func splitFrontmatter(rest []byte) (head, body []byte, first int, ok bool) {
	if bytes.HasPrefix(rest, fence) {
		return nil, rest[len(fence):], 3, true
	}
	if i := bytes.Index(rest, []byte("\n---\n")); i >= 0 {
		head, body = rest[:i+1], rest[i+len("\n---\n"):]
	} else if bytes.HasSuffix(rest, []byte("\n---")) {
		head = rest[:len(rest)-len("---")]
	} else {
		return nil, nil, 0, false
	}
	return head, body, bytes.Count(head, []byte("\n")) + 3, true
}

// Parse reads a plan. When some readings fail, Parse returns the plan with
// the readings that resolved and an error combining one *LineError per
// failure; use LineErrors to list them.
//
// Reading.Line is the file line for frontmatter plans and the position in
// the readings list for YAML plans.
func Parse(data []byte) (Plan, error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	var (
		doc   document
		lines []Reading
	)
	if bytes.HasPrefix(data, fence) {
		head, body, first, ok := splitFrontmatter(data[len(fence):])
		if !ok {
			return Plan{}, errors.NewParse("plan", "", "unterminated frontmatter")
		}
		var h header
		if err := yaml.UnmarshalStrict(head, &h); err != nil {
			return Plan{}, errors.NewParse("plan", "", err.Error())
		}
		doc.Name, doc.Description = h.Name, h.Description
		lines = bodyLines(body, first)
	} else if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return Plan{}, errors.NewParse("plan", "", err.Error())
	}
	for i, text := range doc.Readings {
		lines = append(lines, Reading{Line: i + 1, Text: text})
	}

	p := Plan{
		Name:        strings.TrimSpace(doc.Name),
		Description: strings.TrimSpace(doc.Description),
	}
	var errs error
	for _, r := range lines {
		ref, err := passage.FromString(r.Text)
		if err != nil {
			errs = multierr.Append(errs, &LineError{Line: r.Line, Text: r.Text, Err: err})
			continue
		}
		r.Reference = ref
		p.Readings = append(p.Readings, r)
	}
	if len(p.Readings) == 0 && errs == nil {
		return p, errors.NewValidation("readings", "plan has no readings")
	}
	return p, errs
}

func bodyLines(body []byte, first int) []Reading {
	var out []Reading
	sc := bufio.NewScanner(bytes.NewReader(body))
	for n := first; sc.Scan(); n++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		out = append(out, Reading{Line: n, Text: text})
	}
	return out
}

// Load reads the plan at path. A plan without a name is named after its
// file.
func Load(path string) (Plan, error) {
	if err := validation.ValidatePath(path); err != nil {
		return Plan{}, errors.NewValidation("path", err.Error())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, errors.NewIO("read", path, err)
	}
	p, err := Parse(data)
	if p.Name == "" {
		base := filepath.Base(path)
		p.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	logging.Debug("plan_loaded", "path", path, "name", p.Name, "readings", len(p.Readings),
		"failed", len(LineErrors(err)))
	return p, err
}

// LineErrors returns the per-reading failures inside err.
func LineErrors(err error) []*LineError {
	var out []*LineError
	for _, e := range multierr.Errors(err) {
		var le *LineError
		if errors.As(e, &le) {
			out = append(out, le)
		}
	}
	return out
}
