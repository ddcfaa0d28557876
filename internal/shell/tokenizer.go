// Package shell splits shell command lines into positioned tokens without executing
// or expanding anything. It understands enough of POSIX quoting to locate the words
// a command was typed with: single and double quotes, backslash escapes, comments,
// and command substitution nested inside double quotes.
package shell

import "fmt"

// SubstPlaceholder stands in for a command substitution inside the decoded value of
// the enclosing double-quoted word. The tokens of the substituted command are emitted
// separately.
const SubstPlaceholder = "$(...)"

// DefaultMaxDepth bounds recursion on nested command substitutions.
const DefaultMaxDepth = 64

var twoByteSeparators = map[string]bool{
	"||": true, "&&": true, ";;": true, ";&": true,
	"|&": true, ">>": true, "<<": true, "$(": true,
}

func isOneByteSeparator(c byte) bool {
	switch c {
	case '|', '&', ';', '(', ')', '=', '<', '>', ' ', '\t', '\n', '`':
		return true
	}
	return false
}

// Tokenizer splits commands. The zero value is ready to use.
type Tokenizer struct {
	// MaxDepth limits nesting of command substitutions. Zero means DefaultMaxDepth.
	MaxDepth int
}

// Split tokenizes command with a default Tokenizer.
func Split(command string) ([]Token, error) {
	var t Tokenizer
	return t.Split(command)
}

// Split returns the tokens of command ordered by start offset. Tokens of a nested
// command substitution follow the word that contains it and lie within its span.
func (t *Tokenizer) Split(command string) ([]Token, error) {
	maxDepth := t.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	s := &scanner{src: command, maxDepth: maxDepth}
	if err := s.split(0, 0); err != nil {
		return nil, err
	}
	tokens := make([]Token, len(s.tokens))
	for i, tok := range s.tokens {
		tok.Value = string(s.values[i])
		tokens[i] = tok
	}
	return tokens, nil
}

// scanner is the shared cursor and output buffer threaded through the recursive
// descent. values is parallel to tokens; word values grow while nested tokens are
// appended behind them.
type scanner struct {
	src      string
	pos      int
	depth    int
	maxDepth int
	tokens   []Token
	values   [][]byte
}

// split consumes tokens until the end of input or, when closer is non-zero, until an
// unescaped closer which is emitted as a separator. open is the offset of the
// construct that started this level.
func (s *scanner) split(closer byte, open int) error {
	word := -1
	escaped := false

	for ; s.pos < len(s.src); s.pos++ {
		c := s.src[s.pos]

		switch {
		case escaped:
			s.values[word] = append(s.values[word], c)
			escaped = false

		case c == '\\':
			word = s.openWord(word)
			escaped = true

		case closer != 0 && c == closer:
			s.closeWord(word)
			s.emit(1)
			return nil

		case c == '\'':
			word = s.openWord(word)
			if err := s.singleQuoted(word); err != nil {
				return err
			}

		case c == '"':
			word = s.openWord(word)
			if err := s.doubleQuoted(word); err != nil {
				return err
			}

		case s.pos+1 < len(s.src) && twoByteSeparators[s.src[s.pos:s.pos+2]]:
			s.closeWord(word)
			word = -1
			s.emit(2)
			s.pos++

		case isOneByteSeparator(c):
			s.closeWord(word)
			word = -1
			s.emit(1)

		case c == '#':
			s.closeWord(word)
			word = -1
			s.skipComment()

		default:
			word = s.openWord(word)
			s.values[word] = append(s.values[word], c)
		}
	}

	if closer != 0 {
		return &UnterminatedError{Construct: Substitution, Offset: open}
	}
	s.closeWord(word)
	return nil
}

// openWord starts a word token at the cursor unless one is already open.
func (s *scanner) openWord(word int) int {
	if word >= 0 {
		return word
	}
	s.tokens = append(s.tokens, Token{Start: s.pos, End: -1, Kind: Word})
	s.values = append(s.values, []byte{})
	return len(s.tokens) - 1
}

// closeWord ends an open word just before the cursor.
func (s *scanner) closeWord(word int) {
	if word < 0 {
		return
	}
	s.tokens[word].End = s.pos
}

// emit appends an n-byte separator starting at the cursor.
func (s *scanner) emit(n int) {
	s.tokens = append(s.tokens, Token{Start: s.pos, End: s.pos + n, Kind: Separator})
	s.values = append(s.values, []byte(s.src[s.pos:s.pos+n]))
}

// skipComment leaves the cursor on the last byte before the newline (or end of
// input), so the newline is tokenized normally.
func (s *scanner) skipComment() {
	for s.pos+1 < len(s.src) && s.src[s.pos+1] != '\n' {
		s.pos++
	}
}

// singleQuoted copies everything up to the closing quote. No escapes apply. The
// cursor ends on the closing quote.
func (s *scanner) singleQuoted(word int) error {
	open := s.pos
	for s.pos++; s.pos < len(s.src); s.pos++ {
		if s.src[s.pos] == '\'' {
			s.values[word] = append(s.values[word], s.src[open+1:s.pos]...)
			return nil
		}
	}
	return &UnterminatedError{Construct: SingleQuote, Offset: open}
}

// doubleQuoted copies the quoted text into word, honoring the escapes bash keeps
// inside double quotes and descending into command substitutions. The cursor ends
// on the closing quote.
func (s *scanner) doubleQuoted(word int) error {
	open := s.pos
	escaped := false

	for s.pos++; s.pos < len(s.src); s.pos++ {
		c := s.src[s.pos]
		var next byte
		if s.pos+1 < len(s.src) {
			next = s.src[s.pos+1]
		}

		switch {
		case escaped:
			s.values[word] = append(s.values[word], c)
			escaped = false

		case c == '\\':
			switch next {
			case '$', '`', '"', '\\':
				escaped = true
			default:
				s.values[word] = append(s.values[word], c)
			}

		case c == '$' && next == '(':
			if err := s.substitute(word, 2, ')'); err != nil {
				return err
			}

		case c == '`':
			if err := s.substitute(word, 1, '`'); err != nil {
				return err
			}

		case c == '"':
			return nil

		default:
			s.values[word] = append(s.values[word], c)
		}
	}
	return &UnterminatedError{Construct: DoubleQuote, Offset: open}
}

// substitute marks a command substitution in word, emits its n-byte opener and
// tokenizes the nested command up to closer.
func (s *scanner) substitute(word, n int, closer byte) error {
	open := s.pos
	if s.depth >= s.maxDepth {
		return fmt.Errorf("%w (limit %d) at offset %d", ErrNestingTooDeep, s.maxDepth, open)
	}
	s.values[word] = append(s.values[word], SubstPlaceholder...)
	s.emit(n)
	s.pos += n

	s.depth++
	defer func() { s.depth-- }()
	return s.split(closer, open)
}
