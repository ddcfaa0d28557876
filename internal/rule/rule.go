package rule

import (
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/hpungsan/shrule/internal/journal"
	"github.com/hpungsan/shrule/internal/shell"
)

// Rule is a command ready to be printed as a Snakemake rule.
type Rule struct {
	Name       string
	WorkingDir string

	// Raw is the command as recorded.
	Raw string

	// Shell is the templated command. For an opaque rule it equals Raw.
	Shell string

	Inputs  []*journal.FileEvent
	Outputs []*journal.FileEvent

	// Opaque is set when the command could not be tokenized and its files were
	// listed without placeholders.
	Opaque bool
}

// New builds the rule for cmd. A command the tokenizer rejects becomes an opaque
// rule listing its raw file events, and a warning is logged. Any other failure is
// returned.
func New(name string, cmd *journal.Command, opts Options) (*Rule, error) {
	r := &Rule{
		Name:       name,
		WorkingDir: cmd.WorkingDir,
		Raw:        cmd.Command,
	}

	res, err := Rewrite(cmd, opts)
	if stderrors.Is(err, shell.ErrStructural) {
		opts.logger().Warn("unable to parse shell command",
			zap.String("rule", name), zap.String("command", cmd.Command), zap.Error(err))
		for _, e := range cmd.ReadEvents {
			e.Name = ""
		}
		for _, e := range cmd.WriteEvents {
			e.Name = ""
		}
		r.Shell = cmd.Command
		r.Inputs = cmd.ReadEvents
		r.Outputs = cmd.WriteEvents
		r.Opaque = true
		return r, nil
	}
	if err != nil {
		return nil, err
	}

	r.Shell = res.Shell
	r.Inputs = res.Inputs
	r.Outputs = res.Outputs
	return r, nil
}
