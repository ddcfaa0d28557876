package render

import (
	"fmt"
	"strings"

	"github.com/hpungsan/shrule/internal/rule"
)

// Markdown renders a rule set as a Markdown document: a heading, a table of the
// rules and the Snakefile in a fenced block.
func (p Printer) Markdown(title string, rules []*rule.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if len(rules) == 0 {
		b.WriteString("_No rules._\n")
		return b.String()
	}

	b.WriteString("| Rule | Inputs | Outputs | Command |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, r := range rules {
		raw := strings.ReplaceAll(r.Raw, "\n", " ")
		cmd := "`" + strings.ReplaceAll(raw, "|", `\|`) + "`"
		if r.Opaque {
			cmd += " (unparsed)"
		}
		fmt.Fprintf(&b, "| %s | %d | %d | %s |\n", r.Name, len(r.Inputs), len(r.Outputs), cmd)
	}

	b.WriteString("\n```snakemake\n")
	b.WriteString(strings.TrimRight(p.Snakefile(rules), "\n"))
	b.WriteString("\n```\n")
	return b.String()
}
