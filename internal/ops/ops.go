package ops

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/errors"
	"github.com/hpungsan/shrule/internal/render"
	"github.com/hpungsan/shrule/internal/rule"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// ValidateID trims id and rejects it when empty.
func ValidateID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.NewInvalidRequest("id is required")
	}
	return id, nil
}

// Printer returns the rule printer configured by cfg.
func Printer(cfg *config.Config) render.Printer {
	if cfg == nil {
		return render.Printer{}
	}
	return render.Printer{Indent: cfg.Indent, Quote: cfg.Quote}
}

func ruleOptions(cfg *config.Config, log *zap.Logger) rule.Options {
	opts := rule.Options{Logger: log}
	if cfg != nil {
		opts.MaxDepth = cfg.MaxSubstitutionDepth
	}
	return opts
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
