package archive

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/passage"
)

// Write streams c to w as an xz-compressed tar holding manifest.json and
// references.json.
func Write(w io.Writer, c Collection) error {
	records := make([]record, 0, len(c.Items))
	for _, it := range c.Items {
		code := passage.Encode(it.Reference)
		records = append(records, record{
			Start: code.Start,
			End:   code.End,
			Text:  it.Reference.String(),
			Note:  it.Note,
		})
	}
	refs, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode references: %w", err)
	}

	manifest, err := json.MarshalIndent(Manifest{
		FormatVersion: FormatVersion,
		Name:          c.Name,
		Description:   c.Description,
		CreatedAt:     c.CreatedAt.UTC(),
		Count:         len(records),
		BLAKE3:        digest(refs),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	xw, err := xz.NewWriter(w)
	if err != nil {
		return fmt.Errorf("xz writer: %w", err)
	}
	tw := tar.NewWriter(xw)

	// Timestamps come from the collection so archives are reproducible.
	for _, f := range []struct {
		name string
		data []byte
	}{
		{manifestFile, manifest},
		{referencesFile, refs},
	} {
		hdr := &tar.Header{
			Name:    f.name,
			Mode:    0644,
			Size:    int64(len(f.data)),
			ModTime: c.CreatedAt,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
		if _, err := tw.Write(f.data); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("close xz: %w", err)
	}
	return nil
}

// WriteFile writes c to path, creating parent directories as needed.
func WriteFile(path string, c Collection) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewIO("create directory", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	if err := Write(f, c); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
