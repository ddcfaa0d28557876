package rule

import (
	stderrors "errors"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hpungsan/shrule/internal/errors"
	"github.com/hpungsan/shrule/internal/journal"
	"github.com/hpungsan/shrule/internal/shell"
)

const cwd = "/home/user"

func abs(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = path.Join(cwd, n)
	}
	return out
}

func names(events []*journal.FileEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Name
	}
	return out
}

func paths(events []*journal.FileEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Path
	}
	return out
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		name        string
		command     string
		reads       []string
		writes      []string
		want        string
		inputNames  []string
		outputNames []string
	}{
		{
			name:        "no events",
			command:     "echo foo bar",
			want:        "echo foo bar",
			inputNames:  []string{},
			outputNames: []string{},
		},
		{
			name:        "unqualified in and out",
			command:     "echo hi > w1;cat r1",
			reads:       abs("r1"),
			writes:      abs("w1"),
			want:        "echo hi > {output};cat {input}",
			inputNames:  []string{""},
			outputNames: []string{""},
		},
		{
			name:        "absolute path token",
			command:     "echo hi > w1;cat /home/user/r1",
			reads:       abs("r1"),
			writes:      abs("w1"),
			want:        "echo hi > {output};cat {input}",
			inputNames:  []string{""},
			outputNames: []string{""},
		},
		{
			name:        "separator forces qualified inputs",
			command:     "cat r1;cat r2 > w1",
			reads:       abs("r1", "r2"),
			writes:      abs("w1"),
			want:        "cat {input.in_0};cat {input.in_1} > {output}",
			inputNames:  []string{"in_0", "in_1"},
			outputNames: []string{""},
		},
		{
			name:        "quoted and escaped paths inside substitution",
			command:     `echo "$(cat r1 "r 2"   r\ 3)" > w1`,
			reads:       abs("r1", "r 2", "r 3"),
			writes:      abs("w1"),
			want:        `echo "$(cat {input})" > {output}`,
			inputNames:  []string{"", "", ""},
			outputNames: []string{""},
		},
		{
			name:        "backtick substitution",
			command:     "echo \"`cat r1`\" > w1",
			reads:       abs("r1"),
			writes:      abs("w1"),
			want:        "echo \"`cat {input}`\" > {output}",
			inputNames:  []string{""},
			outputNames: []string{""},
		},
		{
			name:        "unattached word inside run",
			command:     "cat a -n b > out",
			reads:       abs("a", "b"),
			writes:      abs("out"),
			want:        "cat {input.in_0} -n {input.in_1} > {output}",
			inputNames:  []string{"in_0", "in_1"},
			outputNames: []string{""},
		},
		{
			name:        "write between reads",
			command:     "paste a o b",
			reads:       abs("a", "b"),
			writes:      abs("o"),
			want:        "paste {input.in_0} {output} {input.in_1}",
			inputNames:  []string{"in_0", "in_1"},
			outputNames: []string{""},
		},
		{
			name:        "run of reads in reverse event order",
			command:     "cat second first > out",
			reads:       abs("first", "second"),
			writes:      abs("out"),
			want:        "cat {input} > {output}",
			inputNames:  []string{"", ""},
			outputNames: []string{""},
		},
		{
			name:        "repeated path collapses",
			command:     "cat a a > b",
			reads:       abs("a"),
			writes:      abs("b"),
			want:        "cat {input} > {output}",
			inputNames:  []string{""},
			outputNames: []string{""},
		},
		{
			name:        "trailing slash",
			command:     "ls /data/dir/ > listing",
			reads:       []string{"/data/dir"},
			writes:      abs("listing"),
			want:        "ls {input} > {output}",
			inputNames:  []string{""},
			outputNames: []string{""},
		},
		{
			name:        "parent directory",
			command:     "cat ../shared/x > y",
			reads:       []string{"/home/shared/x"},
			writes:      abs("y"),
			want:        "cat {input} > {output}",
			inputNames:  []string{""},
			outputNames: []string{""},
		},
		{
			name:        "read and write of one path, last token writes",
			command:     "tr a-z A-Z < notes > notes",
			reads:       abs("notes"),
			writes:      abs("notes"),
			want:        "tr a-z A-Z < {input} > {output}",
			inputNames:  []string{""},
			outputNames: []string{""},
		},
		{
			name:        "read and write of one path, sole token stays read",
			command:     "sed -i s/a/b/ notes",
			reads:       abs("notes"),
			writes:      abs("notes"),
			want:        "sed -i s/a/b/ {input}",
			inputNames:  []string{""},
			outputNames: []string{"out_missing_0"},
		},
		{
			name:        "unmatched read",
			command:     "make all",
			reads:       abs("Makefile"),
			writes:      abs("all"),
			want:        "make {output}",
			inputNames:  []string{"in_missing_0"},
			outputNames: []string{""},
		},
		{
			name:        "unmatched listed before matched",
			command:     "cc -o prog main.c",
			reads:       abs("main.c", "util.h"),
			writes:      abs("prog"),
			want:        "cc -o {output} {input.in_0}",
			inputNames:  []string{"in_missing_0", "in_0"},
			outputNames: []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := journal.NewCommand(tt.command, cwd, tt.reads, tt.writes)
			res, err := Rewrite(cmd, Options{})
			require.NoError(t, err)
			require.Equal(t, tt.want, res.Shell)
			require.Equal(t, tt.inputNames, names(res.Inputs))
			require.Equal(t, tt.outputNames, names(res.Outputs))
		})
	}
}

func TestRewrite_QualificationIsPerDirection(t *testing.T) {
	cmd := journal.NewCommand("cat r1;cat r2 > w1", cwd, abs("r1", "r2"), abs("w1"))
	res, err := Rewrite(cmd, Options{})
	require.NoError(t, err)
	require.True(t, res.QualifiedInputs)
	require.False(t, res.QualifiedOutputs)
	require.Empty(t, res.Unmatched)
}

func TestRewrite_OrderAndUnmatched(t *testing.T) {
	cmd := journal.NewCommand("cc -o prog main.c", cwd, abs("main.c", "util.h"), abs("prog", "prog.map"))
	res, err := Rewrite(cmd, Options{})
	require.NoError(t, err)

	require.Equal(t, abs("util.h", "main.c"), paths(res.Inputs))
	require.Equal(t, abs("prog.map", "prog"), paths(res.Outputs))
	require.Equal(t, []string{"out_missing_0", "out_0"}, names(res.Outputs))
	require.Equal(t, abs("util.h", "prog.map"), paths(res.Unmatched))
	require.Equal(t, "cc -o {output.out_0} {input.in_0}", res.Shell)
}

func TestRewrite_Deterministic(t *testing.T) {
	cmd := journal.NewCommand("cat r1;cat r2 > w1", cwd, abs("r1", "r2"), abs("w1"))
	first, err := Rewrite(cmd, Options{})
	require.NoError(t, err)
	second, err := Rewrite(cmd, Options{})
	require.NoError(t, err)
	require.Equal(t, first.Shell, second.Shell)
	require.Equal(t, names(first.Inputs), names(second.Inputs))
}

func TestRewrite_RoundTrip(t *testing.T) {
	commands := []struct {
		command string
		reads   []string
		writes  []string
	}{
		{"cat r1;cat r2 > w1", abs("r1", "r2"), abs("w1")},
		{"cat a -n b > out", abs("a", "b"), abs("out")},
		{"paste a o b", abs("a", "b"), abs("o")},
		{"sort big | uniq > small; wc -l small > count", abs("big", "small"), abs("small", "count")},
	}

	for _, c := range commands {
		t.Run(c.command, func(t *testing.T) {
			cmd := journal.NewCommand(c.command, cwd, c.reads, c.writes)
			res, err := Rewrite(cmd, Options{})
			require.NoError(t, err)

			restored := res.Shell
			for _, e := range append(append([]*journal.FileEvent{}, res.Inputs...), res.Outputs...) {
				section := e.Direction.Section()
				if e.Name == "" {
					continue
				}
				restored = strings.ReplaceAll(restored, "{"+section+"."+e.Name+"}", path.Base(e.Path))
			}
			if !res.QualifiedInputs && len(res.Inputs) == 1 {
				restored = strings.ReplaceAll(restored, "{input}", path.Base(res.Inputs[0].Path))
			}
			if !res.QualifiedOutputs && len(res.Outputs) == 1 {
				restored = strings.ReplaceAll(restored, "{output}", path.Base(res.Outputs[0].Path))
			}
			require.Equal(t, c.command, restored)
		})
	}
}

func TestRewrite_StructuralError(t *testing.T) {
	cmd := journal.NewCommand(`echo "open > w1`, cwd, nil, abs("w1"))
	_, err := Rewrite(cmd, Options{})
	require.Error(t, err)
	require.True(t, stderrors.Is(err, shell.ErrStructural))

	var unterminated *shell.UnterminatedError
	require.ErrorAs(t, err, &unterminated)
	require.Equal(t, 5, unterminated.Offset)
}

func TestNew_Fallback(t *testing.T) {
	cmd := journal.NewCommand(`cat 'r1 > w1`, cwd, abs("r1"), abs("w1"))
	cmd.ReadEvents[0].Name = "stale"

	r, err := New("undefined_0", cmd, Options{})
	require.NoError(t, err)
	require.True(t, r.Opaque)
	require.Equal(t, cmd.Command, r.Raw)
	require.Equal(t, cmd.Command, r.Shell)
	require.Equal(t, abs("r1"), paths(r.Inputs))
	require.Equal(t, abs("w1"), paths(r.Outputs))
	require.Equal(t, []string{""}, names(r.Inputs))
}

func TestNew(t *testing.T) {
	cmd := journal.NewCommand("sort in > out", cwd, abs("in"), abs("out"))
	r, err := New("undefined_3", cmd, Options{})
	require.NoError(t, err)
	require.False(t, r.Opaque)
	require.Equal(t, "undefined_3", r.Name)
	require.Equal(t, cwd, r.WorkingDir)
	require.Equal(t, "sort {input} > {output}", r.Shell)
	require.Equal(t, "sort in > out", r.Raw)
}

func TestNew_NestingLimit(t *testing.T) {
	cmd := journal.NewCommand(`echo "$(echo "$(echo "$(cat r1)")")" > w1`, cwd, abs("r1"), abs("w1"))

	r, err := New("deep", cmd, Options{MaxDepth: 2})
	require.NoError(t, err)
	require.True(t, r.Opaque)

	r, err = New("deep", cmd, Options{})
	require.NoError(t, err)
	require.False(t, r.Opaque)
	require.Equal(t, `echo "$(echo "$(echo "$(cat {input})")")" > {output}`, r.Shell)
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"a":          "a",
		"dir/a":      "a",
		"/abs/dir/":  "dir",
		"/":          "",
		"":           "",
		"x/$(...)":   "$(...)",
		"a//":        "",
		"./relative": "relative",
	}
	for in, want := range tests {
		require.Equal(t, want, fileName(in), "fileName(%q)", in)
	}
}

func TestApply_Overlap(t *testing.T) {
	_, err := apply("abcdef", []span{{start: 0, end: 3, text: "x"}, {start: 2, end: 5, text: "y"}})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrInvariant))

	out, err := apply("abcdef", []span{{start: 0, end: 2, text: "x"}, {start: 2, end: 4, text: "y"}})
	require.NoError(t, err)
	require.Equal(t, "xyef", out)
}
