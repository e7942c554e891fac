package passage

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/FocuswithJustin/bibleref/core/canon"
	"github.com/FocuswithJustin/bibleref/core/errors"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "empty",
			input: "",
			want:  []Token{},
		},
		{
			name:  "chapter and verse",
			input: "gen 1:1",
			want: []Token{
				{Kind: BookToken, Book: canon.Genesis, Offset: 0},
				{Kind: NumberToken, Number: 1, Offset: 4},
				{Kind: ColonToken, Offset: 5},
				{Kind: NumberToken, Number: 1, Offset: 6},
			},
		},
		{
			name:  "qualified book",
			input: "1 john 3",
			want: []Token{
				{Kind: BookToken, Book: canon.John1, Offset: 0},
				{Kind: NumberToken, Number: 3, Offset: 7},
			},
		},
		{
			name:  "no space after book",
			input: "gen1",
			want: []Token{
				{Kind: BookToken, Book: canon.Genesis, Offset: 0},
				{Kind: NumberToken, Number: 1, Offset: 3},
			},
		},
		{
			name:  "en dash range",
			input: "jude 5–7",
			want: []Token{
				{Kind: BookToken, Book: canon.Jude, Offset: 0},
				{Kind: NumberToken, Number: 5, Offset: 5},
				{Kind: DashToken, Offset: 6},
				{Kind: NumberToken, Number: 7, Offset: 9},
			},
		},
		{
			name:  "em dash between books",
			input: "genesis — revelation",
			want: []Token{
				{Kind: BookToken, Book: canon.Genesis, Offset: 0},
				{Kind: DashToken, Offset: 8},
				{Kind: BookToken, Book: canon.Revelation, Offset: 12},
			},
		},
		{
			name:  "long number",
			input: "ps 1000000",
			want: []Token{
				{Kind: BookToken, Book: canon.Psalms, Offset: 0},
				{Kind: NumberToken, Number: 1000000, Offset: 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error = %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		input  string
		offset int
	}{
		{"gen 1;1", 5},
		{"gen 1:1 and more", 8},
		{"?", 0},
		{"gen 1,2", 5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			re, ok := errors.AsReference(err)
			if !ok {
				t.Fatalf("Tokenize(%q) error = %v, want ReferenceError", tt.input, err)
			}
			if re.Kind != errors.KindSyntax {
				t.Errorf("Kind = %v, want %v", re.Kind, errors.KindSyntax)
			}
			if re.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", re.Offset, tt.offset)
			}
			if re.Error() != "No valid reference found" {
				t.Errorf("Error() = %q", re.Error())
			}
		})
	}
}

func TestTokenKindString(t *testing.T) {
	if got := signature([]Token{{Kind: BookToken}, {Kind: NumberToken}, {Kind: ColonToken}, {Kind: DashToken}}); got != "B N : -" {
		t.Errorf("signature() = %q", got)
	}
	if got := ColonToken.String(); got != "Colon" {
		t.Errorf("String() = %q, want %q", got, "Colon")
	}
}
