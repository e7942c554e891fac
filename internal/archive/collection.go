package archive

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/bibleref/core/passage"
	"github.com/FocuswithJustin/bibleref/internal/validation"
)

// FormatVersion is written to every manifest. Read rejects other versions.
const FormatVersion = 1

// Ext is the file extension of collection archives.
const Ext = ".refs.tar.xz"

const (
	manifestFile   = "manifest.json"
	referencesFile = "references.json"
)

// Manifest describes the contents of an archive.
type Manifest struct {
	FormatVersion int       `json:"format_version"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Count         int       `json:"count"`
	BLAKE3        string    `json:"blake3"` // digest of references.json
}

// Collection is the portable form of a stored collection.
type Collection struct {
	Name        string
	Description string
	CreatedAt   time.Time
	Items       []Item
}

// Item is one reference with its note.
type Item struct {
	Reference passage.Reference
	Note      string
}

// record is the JSON form of an Item. Text is informational; the encoded
// pair is authoritative.
type record struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
	Note  string `json:"note,omitempty"`
}

func digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NameFromFile strips the archive extension from a file name.
func NameFromFile(filename string) string {
	for _, ext := range []string{Ext, ".tar.xz", ".tar"} {
		if strings.HasSuffix(filename, ext) {
			return strings.TrimSuffix(filename, ext)
		}
	}
	return filename
}

// FileName returns a file name for a collection archive. Names that
// sanitize to nothing fall back to "collection".
func FileName(name string) string {
	base, err := validation.SanitizeFilename(name)
	if err != nil {
		base = "collection"
	}
	return base + Ext
}
