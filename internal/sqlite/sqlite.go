// Package sqlite opens SQLite databases through either the pure Go driver
// (modernc.org/sqlite, the default) or the CGO driver
// (github.com/mattn/go-sqlite3, built with -tags cgo_sqlite).
//
// Use Open instead of sql.Open so the registered driver name always matches
// the build.
package sqlite

import (
	"database/sql"
	"strings"
)

// DriverName returns the database/sql driver name of the linked driver.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// IsMemory reports whether dsn names a private in-memory database.
func IsMemory(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:")
}

// Open opens a SQLite database. In-memory databases are limited to one
// connection, since every new connection would see a fresh empty database.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if IsMemory(dsn) {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
