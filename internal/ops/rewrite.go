package ops

import (
	stderrors "errors"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/shrule/internal/config"
	"github.com/hpungsan/shrule/internal/errors"
	"github.com/hpungsan/shrule/internal/journal"
	"github.com/hpungsan/shrule/internal/rule"
	"github.com/hpungsan/shrule/internal/ruleset"
	"github.com/hpungsan/shrule/internal/shell"
)

// RewriteInput contains parameters for the Rewrite operation.
type RewriteInput struct {
	Command    string   // required
	WorkingDir string   // required, absolute
	Reads      []string // paths read; relative paths are joined with WorkingDir
	Writes     []string // paths written; relative paths are joined with WorkingDir
	Name       string   // rule name, default "<rule_prefix>_1"
}

// RewriteOutput contains the result of the Rewrite operation.
type RewriteOutput struct {
	Rule             ruleset.Entry  `json:"rule"`
	QualifiedInputs  bool           `json:"qualified_inputs"`
	QualifiedOutputs bool           `json:"qualified_outputs"`
	Unmatched        []ruleset.File `json:"unmatched"`
	Snakefile        string         `json:"snakefile"`
}

// Rewrite templates a single command. Unlike Convert it does not fall back to an
// opaque rule: a command that cannot be tokenized is a PARSE_ERROR.
func Rewrite(cfg *config.Config, log *zap.Logger, input RewriteInput) (*RewriteOutput, error) {
	if strings.TrimSpace(input.Command) == "" {
		return nil, errors.NewInvalidRequest("command is required")
	}
	if input.WorkingDir == "" || !path.IsAbs(input.WorkingDir) {
		return nil, errors.NewInvalidRequest("working_dir must be an absolute path")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	cwd := path.Clean(input.WorkingDir)
	cmd := journal.NewCommand(input.Command, cwd, absPaths(cwd, input.Reads), absPaths(cwd, input.Writes))
	cmd.ReadEvents = journal.DedupeByPath(cmd.ReadEvents)
	cmd.WriteEvents = journal.DedupeByPath(cmd.WriteEvents)

	res, err := rule.Rewrite(cmd, ruleOptions(cfg, nopIfNil(log)))
	if err != nil {
		if stderrors.Is(err, shell.ErrStructural) {
			return nil, errors.NewParse(input.Command, err)
		}
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = cfg.RulePrefix + "_1"
	}
	r := &rule.Rule{
		Name:       name,
		WorkingDir: cwd,
		Raw:        input.Command,
		Shell:      res.Shell,
		Inputs:     res.Inputs,
		Outputs:    res.Outputs,
	}

	unmatched := make([]ruleset.File, len(res.Unmatched))
	for i, e := range res.Unmatched {
		unmatched[i] = ruleset.File{Path: e.Path, Name: e.Name}
	}

	return &RewriteOutput{
		Rule:             ruleset.FromRules([]*rule.Rule{r})[0],
		QualifiedInputs:  res.QualifiedInputs,
		QualifiedOutputs: res.QualifiedOutputs,
		Unmatched:        unmatched,
		Snakefile:        Printer(cfg).Snakefile([]*rule.Rule{r}),
	}, nil
}

func absPaths(cwd string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !path.IsAbs(p) {
			p = path.Join(cwd, p)
		}
		out = append(out, path.Clean(p))
	}
	return out
}
