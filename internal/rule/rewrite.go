// Package rule maps the files a command touched onto the words of its command line
// and rewrites those words into Snakemake {input} and {output} placeholders.
package rule

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hpungsan/shrule/internal/errors"
	"github.com/hpungsan/shrule/internal/journal"
	"github.com/hpungsan/shrule/internal/shell"
)

// Options configures rewriting.
type Options struct {
	// MaxDepth bounds nested command substitutions. Zero means shell.DefaultMaxDepth.
	MaxDepth int

	// Logger receives debug traces and fallback warnings. Nil disables logging.
	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Result is a rewritten command.
type Result struct {
	// Shell is the command line with matched paths replaced by placeholders.
	Shell string

	// Inputs and Outputs list unmatched events first, then matched events in order
	// of their first occurrence in the command line.
	Inputs  []*journal.FileEvent
	Outputs []*journal.FileEvent

	QualifiedInputs  bool
	QualifiedOutputs bool

	// Unmatched are the events no token refers to, reads before writes.
	Unmatched []*journal.FileEvent
}

// span is one replacement of command[start:end].
type span struct {
	start, end int
	text       string
}

// Rewrite tokenizes cmd, attaches its file events to tokens and returns the templated
// command. Events get their Name set when their direction is qualified and cleared
// otherwise. Tokenizer failures are returned unchanged and match shell.ErrStructural.
func Rewrite(cmd *journal.Command, opts Options) (*Result, error) {
	tz := shell.Tokenizer{MaxDepth: opts.MaxDepth}
	tokens, err := tz.Split(cmd.Command)
	if err != nil {
		return nil, err
	}

	m := newMatcher(tokens, cmd.WorkingDir, opts.logger())
	if err := m.matchAll(cmd); err != nil {
		return nil, err
	}

	res := &Result{
		QualifiedInputs:  m.needsQualifier(journal.Read),
		QualifiedOutputs: m.needsQualifier(journal.Write),
	}
	res.Unmatched = append(append(res.Unmatched, m.unmatched[journal.Read]...), m.unmatched[journal.Write]...)
	res.Inputs = m.name(journal.Read, res.QualifiedInputs)
	res.Outputs = m.name(journal.Write, res.QualifiedOutputs)

	var spans []span
	spans = append(spans, m.spans(journal.Read, res.QualifiedInputs)...)
	spans = append(spans, m.spans(journal.Write, res.QualifiedOutputs)...)

	res.Shell, err = apply(cmd.Command, spans)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func prefix(d journal.Direction) string {
	if d == journal.Write {
		return "out"
	}
	return "in"
}

// name orders the events of direction d and assigns their placeholder names.
func (m *matcher) name(d journal.Direction, qualified bool) []*journal.FileEvent {
	var ordered []*journal.FileEvent
	for n, e := range m.unmatched[d] {
		e.Name = fmt.Sprintf("%s_missing_%d", prefix(d), n)
		ordered = append(ordered, e)
	}

	seen := make(map[*journal.FileEvent]bool)
	n := 0
	for _, e := range m.attached {
		if e == nil || e.Direction != d || seen[e] {
			continue
		}
		seen[e] = true
		e.Name = ""
		if qualified {
			e.Name = fmt.Sprintf("%s_%d", prefix(d), n)
		}
		ordered = append(ordered, e)
		n++
	}
	return ordered
}

// spans returns one span per attached token when qualified, otherwise one span
// covering the whole run of attached tokens.
func (m *matcher) spans(d journal.Direction, qualified bool) []span {
	section := d.Section()
	if !qualified {
		first, last := m.attachedRange(d)
		if first < 0 {
			return nil
		}
		return []span{{
			start: m.tokens[first].Start,
			end:   m.tokens[last].End,
			text:  "{" + section + "}",
		}}
	}

	var out []span
	for i, e := range m.attached {
		if e == nil || e.Direction != d {
			continue
		}
		out = append(out, span{
			start: m.tokens[i].Start,
			end:   m.tokens[i].End,
			text:  "{" + section + "." + e.Name + "}",
		})
	}
	return out
}

// apply replaces spans from the back of command so earlier offsets stay valid.
func apply(command string, spans []span) (string, error) {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	out := command
	prevStart := len(command) + 1
	for _, s := range spans {
		if s.start >= s.end || s.end > len(command) {
			return "", errors.NewInvariant(fmt.Sprintf("empty or out of range replacement span [%d,%d)", s.start, s.end))
		}
		if s.end > prevStart {
			return "", errors.NewInvariant(fmt.Sprintf("replacement span [%d,%d) overlaps span starting at %d", s.start, s.end, prevStart))
		}
		out = out[:s.start] + s.text + out[s.end:]
		prevStart = s.start
	}
	return out, nil
}
