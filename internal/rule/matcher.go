package rule

import (
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/shrule/internal/errors"
	"github.com/hpungsan/shrule/internal/journal"
	"github.com/hpungsan/shrule/internal/shell"
)

// matcher attaches file events to the word tokens that spell their paths.
type matcher struct {
	cwd    string
	tokens []shell.Token
	log    *zap.Logger

	// index maps a file name to the positions of word tokens ending in it.
	index map[string][]int

	// attached is parallel to tokens.
	attached []*journal.FileEvent

	// unmatched holds events with no token, per direction, in event order.
	unmatched [2][]*journal.FileEvent
}

func newMatcher(tokens []shell.Token, cwd string, log *zap.Logger) *matcher {
	m := &matcher{
		cwd:      cwd,
		tokens:   tokens,
		log:      log,
		index:    make(map[string][]int),
		attached: make([]*journal.FileEvent, len(tokens)),
	}
	for i, tok := range tokens {
		if tok.IsSeparator() {
			continue
		}
		name := fileName(tok.Value)
		if name == "" {
			continue
		}
		m.index[name] = append(m.index[name], i)
	}
	return m
}

// fileName returns the last path segment of s, ignoring one trailing slash.
func fileName(s string) string {
	s = strings.TrimSuffix(s, "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func (m *matcher) resolve(s string) string {
	if !path.IsAbs(s) {
		s = path.Join(m.cwd, s)
	}
	return path.Clean(s)
}

// candidates returns the positions of tokens resolving to p. The index is left
// untouched so that a read and a write of one path see the same candidates.
func (m *matcher) candidates(p string) []int {
	want := path.Clean(p)
	var found []int
	for _, i := range m.index[fileName(want)] {
		resolved := m.resolve(m.tokens[i].Value)
		if resolved != want {
			m.log.Debug("discarding candidate token",
				zap.String("resolved", resolved), zap.String("path", want))
			continue
		}
		found = append(found, i)
	}
	return found
}

// matchAll attaches reads first, then writes.
func (m *matcher) matchAll(cmd *journal.Command) error {
	for _, e := range cmd.ReadEvents {
		if err := m.matchRead(e); err != nil {
			return err
		}
	}
	for _, e := range cmd.WriteEvents {
		if err := m.matchWrite(e); err != nil {
			return err
		}
	}
	return nil
}

func (m *matcher) matchRead(e *journal.FileEvent) error {
	found := m.candidates(e.Path)
	if len(found) == 0 {
		m.unmatched[journal.Read] = append(m.unmatched[journal.Read], e)
		return nil
	}
	for _, i := range found {
		if m.attached[i] != nil {
			return errors.NewInvariant(fmt.Sprintf(
				"token %d (%q) already carries %s event for %s",
				i, m.tokens[i].Value, m.attached[i].Direction, m.attached[i].Path))
		}
		m.attached[i] = e
	}
	return nil
}

// matchWrite attaches a write. When the tokens already belong to a read of the same
// path, the last of them becomes the write; a single such token stays with the read
// and the write is left unmatched.
func (m *matcher) matchWrite(e *journal.FileEvent) error {
	found := m.candidates(e.Path)
	if len(found) == 0 {
		m.unmatched[journal.Write] = append(m.unmatched[journal.Write], e)
		return nil
	}

	claimed := 0
	for _, i := range found {
		prev := m.attached[i]
		if prev == nil {
			continue
		}
		if prev.Direction != journal.Read || prev.Key() != e.Key() {
			return errors.NewInvariant(fmt.Sprintf(
				"token %d (%q) already carries %s event for %s",
				i, m.tokens[i].Value, prev.Direction, prev.Path))
		}
		claimed++
	}

	switch {
	case claimed == 0:
		for _, i := range found {
			m.attached[i] = e
		}
	case claimed != len(found):
		return errors.NewInvariant(fmt.Sprintf("tokens for %s are only partially claimed by a read", e.Path))
	case len(found) == 1:
		m.log.Debug("write left unmatched: its only token belongs to a read of the same path",
			zap.String("path", e.Path))
		m.unmatched[journal.Write] = append(m.unmatched[journal.Write], e)
	default:
		last := found[0]
		for _, i := range found[1:] {
			if m.tokens[i].Start > m.tokens[last].Start {
				last = i
			}
		}
		m.attached[last] = e
	}
	return nil
}
