// Command bibleref parses, formats, encodes and stores Bible references.
package main

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/FocuswithJustin/bibleref/internal/logging"
	"github.com/FocuswithJustin/bibleref/internal/store"
)

const version = "0.1.0"

// stdout receives command output.
var stdout io.Writer = os.Stdout

// Globals are flags shared by every command.
type Globals struct {
	DB        string `name:"db" env:"BIBLEREF_DB" default:"bibleref.db" help:"Database path or connection string"`
	DBDriver  string `name:"db-driver" env:"BIBLEREF_DB_DRIVER" default:"sqlite" enum:"sqlite,postgres" help:"Database driver (sqlite, postgres)"`
	LogLevel  string `name:"log-level" env:"BIBLEREF_LOG_LEVEL" default:"warn" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" env:"BIBLEREF_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format"`
}

func (g *Globals) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, store.Config{Driver: g.DBDriver, DSN: g.DB})
}

func (g *Globals) initLogging() error {
	level, err := logging.ParseLevel(g.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(g.LogFormat)
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)
	return nil
}

// CLI defines the command-line interface for bibleref.
type CLI struct {
	Globals

	Parse      ParseCmd        `cmd:"" help:"Parse reference text and print its canonical form"`
	Format     FormatCmd       `cmd:"" help:"Build a reference from its start and end points"`
	Encode     EncodeCmd       `cmd:"" help:"Print the integer encoding of a reference"`
	Decode     DecodeCmd       `cmd:"" help:"Print the reference for an integer pair"`
	Books      BooksCmd        `cmd:"" help:"List the books of the canon"`
	OSIS       OSISGroup       `cmd:"" name:"osis" help:"OSIS reference conversion"`
	Collection CollectionGroup `cmd:"" help:"Manage stored reference collections"`
	Serve      ServeCmd        `cmd:"" help:"Start the REST and WebSocket API server"`
	Version    VersionCmd      `cmd:"" help:"Print version information"`
}

// loadEnv reads .env from the working directory when present.
func loadEnv() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func main() {
	if err := loadEnv(); err != nil {
		logging.Warn("failed to load .env", "error", err)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("bibleref"),
		kong.Description("Bible reference parsing, validation and storage"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	ctx.FatalIfErrorf(cli.initLogging())
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
