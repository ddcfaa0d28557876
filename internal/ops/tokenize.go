package ops

import (
	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/errors"
	"github.com/hpungsan/shrule/internal/shell"
)

// TokenizeInput contains parameters for the Tokenize operation.
type TokenizeInput struct {
	Command string // required
}

// TokenizeOutput contains the result of the Tokenize operation.
type TokenizeOutput struct {
	Tokens []shell.Token `json:"tokens"`
	Words  int           `json:"words"`
}

// Tokenize splits a command into positioned tokens.
func Tokenize(cfg *config.Config, input TokenizeInput) (*TokenizeOutput, error) {
	if input.Command == "" {
		return nil, errors.NewInvalidRequest("command is required")
	}

	var tz shell.Tokenizer
	if cfg != nil {
		tz.MaxDepth = cfg.MaxSubstitutionDepth
	}
	tokens, err := tz.Split(input.Command)
	if err != nil {
		return nil, errors.NewParse(input.Command, err)
	}

	words := 0
	for _, tok := range tokens {
		if !tok.IsSeparator() {
			words++
		}
	}
	if tokens == nil {
		tokens = []shell.Token{}
	}
	return &TokenizeOutput{Tokens: tokens, Words: words}, nil
}
