// Package render prints rules as Snakemake source.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/hpungsan/shrule/internal/journal"
	"github.com/hpungsan/shrule/internal/rule"
)

// Default formatting.
const (
	DefaultIndent = 4
	DefaultQuote  = `"`
)

// Printer writes rules in Snakemake syntax. The zero value uses the defaults.
type Printer struct {
	// Indent is the number of spaces per level.
	Indent int

	// Quote wraps paths and the shell command. Either `"` or `'`.
	Quote string
}

func (p Printer) indent(level int) string {
	n := p.Indent
	if n <= 0 {
		n = DefaultIndent
	}
	return strings.Repeat(" ", n*level)
}

func (p Printer) quote() string {
	if p.Quote == "" {
		return DefaultQuote
	}
	return p.Quote
}

// QuoteString escapes backslashes and the quote character in s and wraps it in
// quotes.
func (p Printer) QuoteString(s string) string {
	q := p.quote()
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, q, `\`+q)
	return q + escaped + q
}

// quoteShell quotes a shell command, using a triple-quoted string when it spans
// several lines. Continuation lines are not indented.
func (p Printer) quoteShell(s string) string {
	quoted := p.QuoteString(s)
	if !strings.Contains(s, "\n") {
		return quoted
	}
	q := p.quote()
	return q + q + quoted + q + q
}

// WriteRule writes one rule block followed by two blank lines.
func (p Printer) WriteRule(w io.Writer, r *rule.Rule) error {
	var b strings.Builder
	fmt.Fprintf(&b, "rule %s:\n", r.Name)
	p.writeFiles(&b, "input", r.Inputs, r.WorkingDir)
	p.writeFiles(&b, "output", r.Outputs, r.WorkingDir)
	fmt.Fprintf(&b, "%sshell:\n", p.indent(1))
	for _, line := range strings.Split(r.Raw, "\n") {
		fmt.Fprintf(&b, "%s# raw: %s\n", p.indent(2), line)
	}
	fmt.Fprintf(&b, "%s%s\n\n\n", p.indent(2), p.quoteShell(r.Shell))

	_, err := io.WriteString(w, b.String())
	return err
}

func (p Printer) writeFiles(b *strings.Builder, section string, events []*journal.FileEvent, cwd string) {
	if len(events) == 0 {
		return
	}
	fmt.Fprintf(b, "%s%s:\n", p.indent(1), section)
	for _, e := range events {
		name := ""
		if e.Name != "" {
			name = e.Name + "="
		}
		fmt.Fprintf(b, "%s%s%s,\n", p.indent(2), name, p.QuoteString(DisplayPath(e.Path, cwd)))
	}
}

// DisplayPath returns p relative to cwd when it lies below it, p otherwise.
func DisplayPath(p, cwd string) string {
	if cwd == "" || !journal.IsSubpath(p, cwd) {
		return p
	}
	return strings.TrimPrefix(p, strings.TrimSuffix(cwd, "/")+"/")
}

// Snakefile renders all rules into one document.
func (p Printer) Snakefile(rules []*rule.Rule) string {
	var b strings.Builder
	for _, r := range rules {
		// strings.Builder never fails.
		_ = p.WriteRule(&b, r)
	}
	return b.String()
}
