package shell

// Kind distinguishes words from separators.
type Kind int

const (
	Word Kind = iota
	Separator
)

// String returns the lowercase kind name.
func (k Kind) String() string {
	if k == Separator {
		return "separator"
	}
	return "word"
}

// MarshalText lets tokens serialize their kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Token is a lexical unit of a shell command.
//
// Value holds the decoded text: quotes and escaping backslashes removed, nested
// command substitutions replaced by SubstPlaceholder. For separators it is the raw
// operator. Start and End are byte offsets into the original command and include
// any quoting or escaping, so command[Start:End] is the literal source text.
type Token struct {
	Value string `json:"value"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Kind  Kind   `json:"kind"`
}

// IsSeparator reports whether the token is a separator.
func (t Token) IsSeparator() bool {
	return t.Kind == Separator
}

// IsWhitespace reports whether the token is a blank, tab or newline separator.
func (t Token) IsWhitespace() bool {
	if t.Kind != Separator {
		return false
	}
	switch t.Value {
	case " ", "\t", "\n":
		return true
	}
	return false
}

// Source returns the literal text the token was read from.
func (t Token) Source(command string) string {
	return command[t.Start:t.End]
}
