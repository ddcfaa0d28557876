// Package ruleset holds the stored form of converted rules.
package ruleset

import (
	"regexp"
	"strings"

	"github.com/hpungsan/shrule/internal/journal"
	"github.com/hpungsan/shrule/internal/rule"
)

// RuleSet is the result of one conversion, kept so it can be listed, rendered and
// exported later.
type RuleSet struct {
	// ID is a ULID that uniquely identifies this rule set
	ID string `json:"id"`

	// WorkspaceRaw is the workspace string as provided by the user
	WorkspaceRaw string `json:"workspace"`

	// WorkspaceNorm is the normalized workspace (lowercased, trimmed, collapsed spaces)
	WorkspaceNorm string `json:"workspace_norm"`

	// Title is an optional human-readable title
	Title *string `json:"title,omitempty"`

	// WorkingDir is the directory all commands ran in
	WorkingDir string `json:"working_dir"`

	// Rules are ordered as they were converted
	Rules []Entry `json:"rules"`

	// CreatedAt is the Unix timestamp when the rule set was stored
	CreatedAt int64 `json:"created_at"`
}

// Entry is one stored rule.
type Entry struct {
	Name    string `json:"name"`
	Raw     string `json:"raw"`
	Shell   string `json:"shell"`
	Inputs  []File `json:"inputs"`
	Outputs []File `json:"outputs"`
	Opaque  bool   `json:"opaque,omitempty"`
}

// File is a rule input or output.
type File struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// FromRules converts rendered rules into entries.
func FromRules(rules []*rule.Rule) []Entry {
	entries := make([]Entry, len(rules))
	for i, r := range rules {
		entries[i] = Entry{
			Name:    r.Name,
			Raw:     r.Raw,
			Shell:   r.Shell,
			Inputs:  toFiles(r.Inputs),
			Outputs: toFiles(r.Outputs),
			Opaque:  r.Opaque,
		}
	}
	return entries
}

func toFiles(events []*journal.FileEvent) []File {
	files := make([]File, len(events))
	for i, e := range events {
		files[i] = File{Path: e.Path, Name: e.Name}
	}
	return files
}

// ToRules rebuilds printable rules from the stored entries.
func (rs *RuleSet) ToRules() []*rule.Rule {
	rules := make([]*rule.Rule, len(rs.Rules))
	for i, e := range rs.Rules {
		rules[i] = &rule.Rule{
			Name:       e.Name,
			WorkingDir: rs.WorkingDir,
			Raw:        e.Raw,
			Shell:      e.Shell,
			Inputs:     toEvents(e.Inputs, journal.Read),
			Outputs:    toEvents(e.Outputs, journal.Write),
			Opaque:     e.Opaque,
		}
	}
	return rules
}

func toEvents(files []File, d journal.Direction) []*journal.FileEvent {
	events := make([]*journal.FileEvent, len(files))
	for i, f := range files {
		events[i] = &journal.FileEvent{Path: f.Path, Name: f.Name, Direction: d}
	}
	return events
}

// DisplayTitle returns the title, or the ID when untitled.
func (rs *RuleSet) DisplayTitle() string {
	if rs.Title != nil && *rs.Title != "" {
		return *rs.Title
	}
	return rs.ID
}

// Summary is a rule set without its rules, used by list operations.
type Summary struct {
	ID            string  `json:"id"`
	Workspace     string  `json:"workspace"`
	WorkspaceNorm string  `json:"workspace_norm"`
	Title         *string `json:"title,omitempty"`
	WorkingDir    string  `json:"working_dir"`
	RuleCount     int     `json:"rule_count"`
	CreatedAt     int64   `json:"created_at"`
}

// ToSummary strips the rules.
func (rs *RuleSet) ToSummary() Summary {
	return Summary{
		ID:            rs.ID,
		Workspace:     rs.WorkspaceRaw,
		WorkspaceNorm: rs.WorkspaceNorm,
		Title:         rs.Title,
		WorkingDir:    rs.WorkingDir,
		RuleCount:     len(rs.Rules),
		CreatedAt:     rs.CreatedAt,
	}
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize trims, lowercases and collapses internal whitespace.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// NormalizeWorkspace is Normalize with empty mapped to "default".
func NormalizeWorkspace(s string) string {
	if n := Normalize(s); n != "" {
		return n
	}
	return "default"
}
