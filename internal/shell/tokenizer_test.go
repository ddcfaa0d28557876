package shell

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func word(v string, start, end int) Token {
	return Token{Value: v, Start: start, End: end, Kind: Word}
}

func sep(v string, start int) Token {
	return Token{Value: v, Start: start, End: start + len(v), Kind: Separator}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "simple words",
			input: "echo foo bar",
			want: []Token{
				word("echo", 0, 4), sep(" ", 4), word("foo", 5, 8), sep(" ", 8), word("bar", 9, 12),
			},
		},
		{
			name:  "single quotes",
			input: "echo 'foo' 'bar'",
			want: []Token{
				word("echo", 0, 4), sep(" ", 4), word("foo", 5, 10), sep(" ", 10), word("bar", 11, 16),
			},
		},
		{
			name:  "adjacent single quotes concatenate",
			input: "echo 'foo''bar'''' 'me 'too'",
			want: []Token{
				word("echo", 0, 4), sep(" ", 4), word("foobar me", 5, 22), sep(" ", 22), word("too", 23, 28),
			},
		},
		{
			name:  "escapes",
			input: `\ space\|./pipe\>one\ token`,
			want:  []Token{word(" space|./pipe>one token", 0, 27)},
		},
		{
			name:  "double quotes",
			input: `"some |text in" " <<double quotes>>"`,
			want: []Token{
				word("some |text in", 0, 15), sep(" ", 15), word(" <<double quotes>>", 16, 36),
			},
		},
		{
			name:  "nested substitution",
			input: `echo "$(echo "one $(echo "two")")"`,
			want: []Token{
				word("echo", 0, 4),
				sep(" ", 4),
				word(SubstPlaceholder, 5, 34),
				sep("$(", 6),
				word("echo", 8, 12),
				sep(" ", 12),
				word("one "+SubstPlaceholder, 13, 32),
				sep("$(", 18),
				word("echo", 20, 24),
				sep(" ", 24),
				word("two", 25, 30),
				sep(")", 30),
				sep(")", 32),
			},
		},
		{
			name:  "backtick substitution",
			input: "x=\"`cat a`\"",
			want: []Token{
				word("x", 0, 1),
				sep("=", 1),
				word(SubstPlaceholder, 2, 11),
				sep("`", 3),
				word("cat", 4, 7),
				sep(" ", 7),
				word("a", 8, 9),
				sep("`", 9),
			},
		},
		{
			name:  "mixed quotes",
			input: `foo="double "'single '"double \""\ noquote`,
			want: []Token{
				word("foo", 0, 3), sep("=", 3), word(`double single double " noquote`, 4, 42),
			},
		},
		{
			name:  "substitution followed by quoted text",
			input: `"$(:)"'next'`,
			want: []Token{
				word(SubstPlaceholder+"next", 0, 12),
				sep("$(", 1),
				word(":", 3, 4),
				sep(")", 4),
			},
		},
		{
			name:  "comment keeps newline",
			input: "a # stuff \nb c",
			want: []Token{
				word("a", 0, 1), sep(" ", 1), sep("\n", 10), word("b", 11, 12), sep(" ", 12), word("c", 13, 14),
			},
		},
		{
			name:  "comment at end",
			input: "a #b",
			want:  []Token{word("a", 0, 1), sep(" ", 1)},
		},
		{
			name:  "two byte operators win",
			input: "a&&b>>c|&d",
			want: []Token{
				word("a", 0, 1), sep("&&", 1), word("b", 3, 4), sep(">>", 4), word("c", 6, 7), sep("|&", 7), word("d", 9, 10),
			},
		},
		{
			name:  "unquoted substitution is only a separator",
			input: "$(ls)",
			want:  []Token{sep("$(", 0), word("ls", 2, 4), sep(")", 4)},
		},
		{
			name:  "backslash keeps unknown escapes in double quotes",
			input: `"a\b"`,
			want:  []Token{word(`a\b`, 0, 5)},
		},
		{
			name:  "empty input",
			input: "",
			want:  []Token{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.input)
			if err != nil {
				t.Fatalf("Split(%q) error = %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Split(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestSplit_Unterminated(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		construct Construct
		offset    int
	}{
		{"double quote", `echo "foo`, DoubleQuote, 5},
		{"single quote", `cat 'a b`, SingleQuote, 4},
		{"substitution", `echo "$(cat a"`, DoubleQuote, 13},
		{"substitution without closer", `echo "$(cat a`, Substitution, 6},
		{"backtick", "echo \"`ls\"", DoubleQuote, 9},
		{"trailing backslash in double quotes", `"abc\`, DoubleQuote, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.input)
			var uerr *UnterminatedError
			if !errors.As(err, &uerr) {
				t.Fatalf("Split(%q) error = %v, want *UnterminatedError", tt.input, err)
			}
			if uerr.Construct != tt.construct {
				t.Errorf("Construct = %v, want %v", uerr.Construct, tt.construct)
			}
			if uerr.Offset != tt.offset {
				t.Errorf("Offset = %d, want %d", uerr.Offset, tt.offset)
			}
			if !errors.Is(err, ErrStructural) {
				t.Errorf("errors.Is(err, ErrStructural) = false")
			}
		})
	}
}

func TestSplit_NestingLimit(t *testing.T) {
	cmd := `echo "$(echo "$(echo "$(echo x)")")"`

	tok := Tokenizer{MaxDepth: 2}
	_, err := tok.Split(cmd)
	if !errors.Is(err, ErrNestingTooDeep) {
		t.Fatalf("Split() error = %v, want ErrNestingTooDeep", err)
	}
	if !errors.Is(err, ErrStructural) {
		t.Errorf("errors.Is(err, ErrStructural) = false")
	}

	tok.MaxDepth = 3
	if _, err := tok.Split(cmd); err != nil {
		t.Fatalf("Split() with MaxDepth 3 error = %v", err)
	}
}

func TestSplit_TrailingBackslash(t *testing.T) {
	got, err := Split(`ab\`)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	want := []Token{word("ab", 0, 3)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// Plain commands split only on separators, so the spans tile the input.
func TestSplit_PlainSpansTile(t *testing.T) {
	inputs := []string{
		"cat a b > c",
		"ls -l|wc -l;echo done&& exit",
		"x=1 y=2 make\tall\n",
		"a>>b<<c||d;;e;&f",
	}
	for _, in := range inputs {
		tokens, err := Split(in)
		if err != nil {
			t.Fatalf("Split(%q) error = %v", in, err)
		}
		var b strings.Builder
		for _, tok := range tokens {
			b.WriteString(tok.Source(in))
			if tok.Value != tok.Source(in) {
				t.Errorf("token %+v: value differs from source %q", tok, tok.Source(in))
			}
		}
		if b.String() != in {
			t.Errorf("concatenated spans = %q, want %q", b.String(), in)
		}
	}
}

// Top-level tokens never overlap. Tokens of a substitution inside double quotes
// lie within the span of the enclosing word and follow it in the slice.
func TestSplit_SpansOrderedAndNested(t *testing.T) {
	cmd := `cp "a b" 'c'\ d "$(cat e "f")" > g # done`
	tokens, err := Split(cmd)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	outer := -1
	nested := 0
	for i, tok := range tokens {
		if tok.Start >= tok.End {
			t.Errorf("token %d has empty span %+v", i, tok)
		}
		if i > 0 && tok.Start <= tokens[i-1].Start {
			t.Errorf("token %d starts at %d, not after %d", i, tok.Start, tokens[i-1].Start)
		}
		if outer >= 0 && tok.Start < tokens[outer].End {
			if tok.End > tokens[outer].End {
				t.Errorf("token %d %+v overlaps token %d %+v", i, tok, outer, tokens[outer])
			}
			nested++
			continue
		}
		outer = i
	}
	if nested != 7 {
		t.Errorf("nested tokens = %d, want 7", nested)
	}
}

func TestSplit_SpanMatchesDecodedValue(t *testing.T) {
	cmd := `cat 'a b' "c d" e\ f`
	tokens, err := Split(cmd)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	strip := strings.NewReplacer(`'`, "", `"`, "", `\`, "")
	for _, tok := range tokens {
		if tok.IsSeparator() {
			continue
		}
		if got := strip.Replace(tok.Source(cmd)); got != tok.Value {
			t.Errorf("stripped source %q != value %q", got, tok.Value)
		}
	}
}

func TestToken_IsWhitespace(t *testing.T) {
	tests := []struct {
		tok  Token
		want bool
	}{
		{sep(" ", 0), true},
		{sep("\t", 0), true},
		{sep("\n", 0), true},
		{sep(";", 0), false},
		{word(" ", 0, 3), false},
	}
	for _, tt := range tests {
		if got := tt.tok.IsWhitespace(); got != tt.want {
			t.Errorf("IsWhitespace(%+v) = %v, want %v", tt.tok, got, tt.want)
		}
	}
}
