package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/passage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustParse(t *testing.T, text string) passage.Reference {
	t.Helper()
	r, err := passage.FromString(text)
	if err != nil {
		t.Fatalf("FromString(%q) error = %v", text, err)
	}
	return r
}

var refComparer = cmp.Comparer(func(a, b passage.Reference) bool { return a == b })

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Open() error = %v, want ErrInvalidInput", err)
	}
}

func TestReopenFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "refs.db")

	s, err := Open(ctx, Config{DSN: path})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	c, err := s.CreateCollection(ctx, "advent", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddReference(ctx, c.ID, mustParse(t, "Isaiah 9:6"), ""); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Migrations are idempotent and data survives.
	s, err = Open(ctx, Config{DSN: path})
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	got, err := s.FindCollection(ctx, "advent")
	if err != nil {
		t.Fatal(err)
	}
	if got.Count != 1 {
		t.Errorf("Count = %d, want 1", got.Count)
	}
}

func TestCollections(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	lent, err := s.CreateCollection(ctx, " lent ", "forty days")
	if err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	if lent.Name != "lent" || len(lent.ID) != 36 {
		t.Errorf("CreateCollection() = %+v", lent)
	}
	if _, err := s.CreateCollection(ctx, "advent", ""); err != nil {
		t.Fatal(err)
	}

	if _, err := s.CreateCollection(ctx, "lent", ""); !errors.Is(err, errors.ErrAlreadyExists) {
		t.Errorf("duplicate CreateCollection() error = %v, want ErrAlreadyExists", err)
	}
	if _, err := s.CreateCollection(ctx, "  ", ""); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("empty CreateCollection() error = %v, want ErrInvalidInput", err)
	}

	got, err := s.GetCollection(ctx, lent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(lent, got); diff != "" {
		t.Errorf("GetCollection() mismatch (-want +got):\n%s", diff)
	}

	list, err := s.ListCollections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range list {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"advent", "lent"}, names); diff != "" {
		t.Errorf("ListCollections() names mismatch (-want +got):\n%s", diff)
	}

	if byName, err := s.Resolve(ctx, "lent"); err != nil || byName.ID != lent.ID {
		t.Errorf("Resolve(name) = %+v, %v", byName, err)
	}
	if byID, err := s.Resolve(ctx, lent.ID); err != nil || byID.Name != "lent" {
		t.Errorf("Resolve(id) = %+v, %v", byID, err)
	}

	if err := s.DeleteCollection(ctx, lent.ID); err != nil {
		t.Fatalf("DeleteCollection() error = %v", err)
	}
	if _, err := s.GetCollection(ctx, lent.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetCollection() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteCollection(ctx, lent.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second DeleteCollection() error = %v, want ErrNotFound", err)
	}
}

func TestReferences(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c, err := s.CreateCollection(ctx, "creation", "")
	if err != nil {
		t.Fatal(err)
	}

	inputs := []string{"John 1:1-5", "Genesis 1", "Psalm 104", "Genesis 1:1", "Hebrews 11:3"}
	ids := map[string]string{}
	for _, in := range inputs {
		e, err := s.AddReference(ctx, c.ID, mustParse(t, in), "note for "+in)
		if err != nil {
			t.Fatalf("AddReference(%q) error = %v", in, err)
		}
		ids[in] = e.ID
	}

	entries, err := s.ListReferences(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range entries {
		got = append(got, e.Reference.String())
	}
	want := []string{"Genesis 1:1", "Genesis 1:1-31", "Psalms 104:1-35", "John 1:1-5", "Hebrews 11:3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListReferences() order mismatch (-want +got):\n%s", diff)
	}
	if entries[0].Note != "note for Genesis 1:1" {
		t.Errorf("Note = %q", entries[0].Note)
	}

	overlap, err := s.FindOverlapping(ctx, c.ID, mustParse(t, "Genesis 1:31 - Psalm 1"))
	if err != nil {
		t.Fatal(err)
	}
	wantOverlap := []passage.Reference{mustParse(t, "Genesis 1")}
	var gotOverlap []passage.Reference
	for _, e := range overlap {
		gotOverlap = append(gotOverlap, e.Reference)
	}
	if diff := cmp.Diff(wantOverlap, gotOverlap, refComparer); diff != "" {
		t.Errorf("FindOverlapping() mismatch (-want +got):\n%s", diff)
	}

	other, err := s.CreateCollection(ctx, "other", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveReference(ctx, other.ID, ids["Psalm 104"]); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("RemoveReference(other collection) error = %v, want ErrNotFound", err)
	}
	if err := s.RemoveReference(ctx, c.ID, ids["Psalm 104"]); err != nil {
		t.Fatalf("RemoveReference() error = %v", err)
	}
	if err := s.RemoveReference(ctx, c.ID, ids["Psalm 104"]); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second RemoveReference() error = %v, want ErrNotFound", err)
	}
	col, err := s.GetCollection(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if col.Count != 4 {
		t.Errorf("Count = %d, want 4", col.Count)
	}

	if _, err := s.AddReference(ctx, "missing", mustParse(t, "Gen 1:1"), ""); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("AddReference(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.AddReference(ctx, c.ID, passage.Reference{}, ""); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("AddReference(zero) error = %v, want ErrInvalidInput", err)
	}
	if _, err := s.ListReferences(ctx, "missing"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("ListReferences(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCorruptRowIsRejected(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c, err := s.CreateCollection(ctx, "broken", "")
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO collection_refs (id, collection_id, start_code, end_code, note, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		"bad", c.ID, 65001030, 65001030, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.ListReferences(ctx, c.ID)
	if !errors.Is(err, errors.ErrBounds) {
		t.Fatalf("ListReferences() error = %v, want ErrBounds", err)
	}
}
