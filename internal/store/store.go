// Package store persists named collections of references. References are
// stored only in their encoded integer form and are decoded, and therefore
// revalidated, on every read.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // registers "postgres"
	"github.com/pressly/goose/v3"

	"github.com/FocuswithJustin/bibleref/core/errors"
	"github.com/FocuswithJustin/bibleref/core/passage"
	"github.com/FocuswithJustin/bibleref/internal/logging"
	"github.com/FocuswithJustin/bibleref/internal/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Supported values for Config.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the database backend.
type Config struct {
	Driver string // "sqlite" (default) or "postgres"
	DSN    string // file path, ":memory:", or a postgres connection string
}

// Collection is a named list of references.
type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	Count       int       `json:"count"`
}

// Entry is one reference stored in a collection.
type Entry struct {
	ID           string            `json:"id"`
	CollectionID string            `json:"collection_id"`
	Reference    passage.Reference `json:"reference"`
	Note         string            `json:"note,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Store is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the configured database and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	var (
		db      *sql.DB
		dialect goose.Dialect
		err     error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		db, err = sqlite.Open(cfg.DSN)
		dialect = goose.DialectSQLite3
	case DriverPostgres:
		db, err = sql.Open("postgres", cfg.DSN)
		dialect = goose.DialectPostgres
	default:
		return nil, errors.NewValidation("driver", fmt.Sprintf("unsupported database driver %q", cfg.Driver))
	}
	if err != nil {
		return nil, errors.NewIO("open", cfg.DSN, err)
	}

	s, err := New(ctx, db, dialect)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and applies pending migrations.
func New(ctx context.Context, db *sql.DB, dialect goose.Dialect) (*Store, error) {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return nil, err
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, errors.Wrap(err, "load migrations")
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "apply migrations")
	}
	for _, r := range results {
		logging.Debug("migration_applied", "version", r.Source.Version, "duration_ms", r.Duration.Milliseconds())
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCollection adds an empty collection. Names are unique.
func (s *Store) CreateCollection(ctx context.Context, name, description string) (Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Collection{}, errors.NewValidation("name", "must not be empty")
	}
	if _, err := s.FindCollection(ctx, name); err == nil {
		return Collection{}, fmt.Errorf("collection %q: %w", name, errors.ErrAlreadyExists)
	} else if !errors.Is(err, errors.ErrNotFound) {
		return Collection{}, err
	}

	c := Collection{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   s.now().UTC().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (id, name, description, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID, c.Name, c.Description, c.CreatedAt.Unix())
	if err != nil {
		return Collection{}, errors.Wrap(err, "insert collection")
	}
	logging.StoreEvent(ctx, "create_collection", c.ID, "name", c.Name)
	return c, nil
}

const collectionColumns = `c.id, c.name, c.description, c.created_at,
	(SELECT COUNT(*) FROM collection_refs r WHERE r.collection_id = c.id)`

func scanCollection(row interface{ Scan(...any) error }) (Collection, error) {
	var (
		c       Collection
		created int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &created, &c.Count); err != nil {
		return Collection{}, err
	}
	c.CreatedAt = time.Unix(created, 0).UTC()
	return c, nil
}

// GetCollection returns the collection with the given ID.
func (s *Store) GetCollection(ctx context.Context, id string) (Collection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections c WHERE c.id = $1`, id)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Collection{}, &errors.NotFoundError{Resource: "collection", ID: id}
	}
	return c, err
}

// FindCollection returns the collection with the given name.
func (s *Store) FindCollection(ctx context.Context, name string) (Collection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections c WHERE c.name = $1`, name)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Collection{}, &errors.NotFoundError{Resource: "collection", ID: name}
	}
	return c, err
}

// Resolve finds a collection by ID, falling back to its name.
func (s *Store) Resolve(ctx context.Context, idOrName string) (Collection, error) {
	c, err := s.GetCollection(ctx, idOrName)
	if errors.Is(err, errors.ErrNotFound) {
		return s.FindCollection(ctx, idOrName)
	}
	return c, err
}

// ListCollections returns every collection ordered by name.
func (s *Store) ListCollections(ctx context.Context) ([]Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+collectionColumns+` FROM collections c ORDER BY c.name`)
	if err != nil {
		return nil, errors.Wrap(err, "list collections")
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCollection removes a collection and all of its entries.
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM collection_refs WHERE collection_id = $1`, id); err != nil {
		return errors.Wrap(err, "delete entries")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete collection")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.NotFoundError{Resource: "collection", ID: id}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logging.StoreEvent(ctx, "delete_collection", id)
	return nil
}

// AddReference appends ref to a collection.
func (s *Store) AddReference(ctx context.Context, collectionID string, ref passage.Reference, note string) (Entry, error) {
	if ref.IsZero() {
		return Entry{}, errors.NewValidation("reference", "must not be empty")
	}
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return Entry{}, err
	}

	e := Entry{
		ID:           uuid.NewString(),
		CollectionID: collectionID,
		Reference:    ref,
		Note:         note,
		CreatedAt:    s.now().UTC().Truncate(time.Second),
	}
	code := passage.Encode(ref)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collection_refs (id, collection_id, start_code, end_code, note, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.CollectionID, code.Start, code.End, e.Note, e.CreatedAt.Unix())
	if err != nil {
		return Entry{}, errors.Wrap(err, "insert reference")
	}
	logging.StoreEvent(ctx, "add_reference", collectionID, "reference", ref.String(), "entry_id", e.ID)
	return e, nil
}

// RemoveReference deletes one entry of a collection.
func (s *Store) RemoveReference(ctx context.Context, collectionID, entryID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM collection_refs WHERE id = $1 AND collection_id = $2`, entryID, collectionID)
	if err != nil {
		return errors.Wrap(err, "delete reference")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.NotFoundError{Resource: "entry", ID: entryID}
	}
	logging.StoreEvent(ctx, "remove_reference", collectionID, "entry_id", entryID)
	return nil
}

// ListReferences returns the entries of a collection in canonical order.
func (s *Store) ListReferences(ctx context.Context, collectionID string) ([]Entry, error) {
	if _, err := s.GetCollection(ctx, collectionID); err != nil {
		return nil, err
	}
	return s.queryEntries(ctx,
		`SELECT id, collection_id, start_code, end_code, note, created_at FROM collection_refs
		 WHERE collection_id = $1 ORDER BY start_code, end_code, created_at, id`,
		collectionID)
}

// FindOverlapping returns the entries of a collection that share at least
// one verse with ref.
func (s *Store) FindOverlapping(ctx context.Context, collectionID string, ref passage.Reference) ([]Entry, error) {
	code := passage.Encode(ref)
	return s.queryEntries(ctx,
		`SELECT id, collection_id, start_code, end_code, note, created_at FROM collection_refs
		 WHERE collection_id = $1 AND start_code <= $2 AND end_code >= $3
		 ORDER BY start_code, end_code, created_at, id`,
		collectionID, code.End, code.Start)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query references")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			code    passage.EncodedPair
			created int64
		)
		if err := rows.Scan(&e.ID, &e.CollectionID, &code.Start, &code.End, &e.Note, &created); err != nil {
			return nil, err
		}
		e.Reference, err = passage.Decode(code)
		if err != nil {
			return nil, errors.Wrapf(err, "entry %s", e.ID)
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
