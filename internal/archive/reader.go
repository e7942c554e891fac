// Package archive reads and writes collection archives: xz-compressed tar
// streams holding a manifest and the encoded references of one collection.
package archive

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/passage"
	"github.com/FocuswithJustin/bibleref/internal/validation"
)

// maxFileSize bounds each member read into memory.
const maxFileSize = 64 << 20

// Reader wraps a tar.Reader over an xz stream.
type Reader struct {
	*tar.Reader
}

// NewReader returns a Reader for the xz-compressed tar stream r.
func NewReader(r io.Reader) (*Reader, error) {
	xzr, err := xz.NewReader(r)
	if err != nil {
		return nil, errors.NewParse("archive", "", fmt.Sprintf("xz reader: %v", err))
	}
	return &Reader{Reader: tar.NewReader(xzr)}, nil
}

// Visitor is called for each archive member.
// Return true to stop iteration, false to continue.
type Visitor func(header *tar.Header, content io.Reader) (stop bool, err error)

// Iterate walks through all entries in the archive, calling the visitor for each.
func (r *Reader) Iterate(visitor Visitor) error {
	for {
		header, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.NewParse("archive", "", fmt.Sprintf("read header: %v", err))
		}

		stop, err := visitor(header, r)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

// Read decodes an archive written by Write. The references file must match
// the manifest digest and count, and every entry is decoded and validated.
func Read(r io.Reader) (Collection, error) {
	ar, err := NewReader(r)
	if err != nil {
		return Collection{}, err
	}

	files := map[string][]byte{}
	err = ar.Iterate(func(h *tar.Header, content io.Reader) (bool, error) {
		if h.Name != manifestFile && h.Name != referencesFile {
			return false, nil
		}
		data, err := io.ReadAll(io.LimitReader(content, maxFileSize+1))
		if err != nil {
			return true, errors.NewParse("archive", h.Name, err.Error())
		}
		if len(data) > maxFileSize {
			return true, errors.NewParse("archive", h.Name, "file too large")
		}
		files[h.Name] = data
		return len(files) == 2, nil
	})
	if err != nil {
		return Collection{}, err
	}

	for _, name := range []string{manifestFile, referencesFile} {
		if _, ok := files[name]; !ok {
			return Collection{}, errors.NewParse("archive", "", "missing "+name)
		}
	}

	var m Manifest
	if err := json.Unmarshal(files[manifestFile], &m); err != nil {
		return Collection{}, errors.NewParse("manifest", manifestFile, err.Error())
	}
	if m.FormatVersion != FormatVersion {
		return Collection{}, errors.NewParse("manifest", manifestFile,
			fmt.Sprintf("unsupported format version %d", m.FormatVersion))
	}
	if got := digest(files[referencesFile]); got != m.BLAKE3 {
		return Collection{}, errors.NewValidation("blake3",
			fmt.Sprintf("references digest %s does not match manifest %s", got, m.BLAKE3))
	}

	var records []record
	if err := json.Unmarshal(files[referencesFile], &records); err != nil {
		return Collection{}, errors.NewParse("references", referencesFile, err.Error())
	}
	if len(records) != m.Count {
		return Collection{}, errors.NewValidation("count",
			fmt.Sprintf("manifest lists %d references, found %d", m.Count, len(records)))
	}

	c := Collection{
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		Items:       make([]Item, 0, len(records)),
	}
	for i, rec := range records {
		ref, err := passage.Decode(passage.EncodedPair{Start: rec.Start, End: rec.End})
		if err != nil {
			return Collection{}, errors.Wrapf(err, "reference %d", i+1)
		}
		c.Items = append(c.Items, Item{Reference: ref, Note: rec.Note})
	}
	return c, nil
}

// ReadFile opens and decodes the archive at path.
func ReadFile(path string) (Collection, error) {
	if err := validation.ValidatePath(path); err != nil {
		return Collection{}, errors.NewValidation("path", err.Error())
	}
	f, err := os.Open(path)
	if err != nil {
		return Collection{}, errors.NewIO("open", path, err)
	}
	defer f.Close()
	if err := validation.CheckArchive(f); err != nil {
		return Collection{}, errors.NewParse("archive", path, err.Error())
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Collection{}, errors.NewIO("seek", path, err)
	}
	return Read(f)
}
