package passage

import (
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/bibleref/core/canon"
	"github.com/FocuswithJustin/bibleref/core/errors"
)

// TokenKind classifies a Token.
type TokenKind int

const (
	BookToken TokenKind = iota + 1
	NumberToken
	DashToken
	ColonToken
)

func (k TokenKind) String() string {
	switch k {
	case BookToken:
		return "Book"
	case NumberToken:
		return "Number"
	case DashToken:
		return "Dash"
	case ColonToken:
		return "Colon"
	}
	return "Unknown"
}

// Token is a lexical unit of a reference.
type Token struct {
	Kind   TokenKind
	Book   canon.Book // set for BookToken
	Number int        // set for NumberToken
	Offset int        // byte offset in the input
}

// refLexer tokenizes lower-cased reference text. Rules are tried in order:
// book names first so that "1 john" is a book and not a number.
var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Book", Pattern: canon.AliasPattern()},
	{Name: "Dash", Pattern: `[-–—]`},
	{Name: "Colon", Pattern: `:`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "whitespace", Pattern: `\s+`},
})

var (
	bookType   = refLexer.Symbols()["Book"]
	dashType   = refLexer.Symbols()["Dash"]
	colonType  = refLexer.Symbols()["Colon"]
	numberType = refLexer.Symbols()["Number"]
)

// Tokenize splits lower-cased text into tokens. Any character that starts
// no token fails the whole input with a syntax error carrying its offset.
func Tokenize(text string) ([]Token, error) {
	lex, err := refLexer.LexString("", text)
	if err != nil {
		return nil, errors.NewSyntax(0)
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		offset := 0
		var lerr *lexer.Error
		if errors.As(err, &lerr) {
			offset = lerr.Pos.Offset
		}
		return nil, errors.NewSyntax(offset)
	}

	tokens := make([]Token, 0, len(raw))
	for _, tok := range raw {
		if tok.EOF() {
			break
		}
		t := Token{Offset: tok.Pos.Offset}
		switch tok.Type {
		case bookType:
			book, _, ok := canon.MatchPrefix(tok.Value)
			if !ok {
				return nil, errors.NewSyntax(t.Offset)
			}
			t.Kind, t.Book = BookToken, book
		case numberType:
			n, err := strconv.Atoi(tok.Value)
			if err != nil {
				return nil, errors.NewSyntax(t.Offset)
			}
			t.Kind, t.Number = NumberToken, n
		case dashType:
			t.Kind = DashToken
		case colonType:
			t.Kind = ColonToken
		default:
			return nil, errors.NewSyntax(t.Offset)
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}
