package shell

import (
	"errors"
	"fmt"
)

// ErrStructural is the root of all tokenizer failures. A command that fails with it
// cannot be mapped token by token and should be treated as opaque text.
var ErrStructural = errors.New("malformed shell command")

// ErrNestingTooDeep is returned when command substitutions nest deeper than the
// tokenizer's MaxDepth.
var ErrNestingTooDeep = fmt.Errorf("%w: command substitution nested too deeply", ErrStructural)

// Construct names the quoting construct left open.
type Construct int

const (
	SingleQuote Construct = iota
	DoubleQuote
	Substitution
)

func (c Construct) String() string {
	switch c {
	case SingleQuote:
		return "single quote"
	case DoubleQuote:
		return "double quote"
	default:
		return "command substitution"
	}
}

// UnterminatedError reports a quote or command substitution without its closer.
type UnterminatedError struct {
	Construct Construct
	// Offset is the byte offset of the opening quote, "$(" or backtick.
	Offset int
}

func (e *UnterminatedError) Error() string {
	return fmt.Sprintf("unterminated %s opened at offset %d", e.Construct, e.Offset)
}

// Unwrap makes errors.Is(err, ErrStructural) hold.
func (e *UnterminatedError) Unwrap() error {
	return ErrStructural
}
