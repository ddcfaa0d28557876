package journal

import (
	"strings"

	"go.uber.org/zap"
)

// Loader collects the commands that become rules. Commands are accepted only if
// they wrote files, ran in the same working directory as the first accepted
// command, and are not duplicates of an earlier command.
type Loader struct {
	// WorkingDir is fixed by the first accepted command unless preset.
	WorkingDir string

	// KeepReadsOutsideCwd keeps read events outside the working directory.
	KeepReadsOutsideCwd bool

	// KeepWritesOutsideCwd keeps write events outside the working directory.
	KeepWritesOutsideCwd bool

	log      *zap.Logger
	commands []*Command
	// Equal command strings may carry different file events, so each string maps
	// to every accepted command with it.
	byString map[string][]*Command
}

// NewLoader returns a Loader that logs its decisions to log (nil disables logging).
func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		KeepReadsOutsideCwd: true,
		log:                 log,
		byString:            make(map[string][]*Command),
	}
}

// Commands returns the accepted commands in the order they were added.
func (l *Loader) Commands() []*Command {
	return l.commands
}

// Add filters cmd in place and appends it if it qualifies. It reports whether the
// command was accepted.
func (l *Loader) Add(cmd *Command) bool {
	cmd.WriteEvents = l.dedupe(cmd.WriteEvents)
	cmd.ReadEvents = l.dedupe(cmd.ReadEvents)

	logCmd := l.log.With(zap.Int64("command_id", cmd.ID), zap.String("command", cmd.Command))

	if len(cmd.WriteEvents) == 0 {
		logCmd.Info("ignoring command: it did not modify any files")
		return false
	}

	if l.WorkingDir != "" && cmd.WorkingDir != l.WorkingDir {
		logCmd.Info("ignoring command: different working directory",
			zap.String("want", l.WorkingDir), zap.String("got", cmd.WorkingDir))
		return false
	}

	if !l.KeepWritesOutsideCwd {
		cmd.WriteEvents = l.keepUnder(cmd.WriteEvents, cmd.WorkingDir, logCmd)
		if len(cmd.WriteEvents) == 0 {
			logCmd.Info("ignoring command: it did not modify any files under the working directory")
			return false
		}
	}
	if !l.KeepReadsOutsideCwd {
		cmd.ReadEvents = l.keepUnder(cmd.ReadEvents, cmd.WorkingDir, logCmd)
	}

	if dup := l.findDuplicate(cmd); dup != nil {
		logCmd.Info("ignoring command: duplicate", zap.Int64("duplicate_of", dup.ID))
		return false
	}

	if l.WorkingDir == "" {
		l.WorkingDir = cmd.WorkingDir
	}
	l.commands = append(l.commands, cmd)
	l.byString[cmd.Command] = append(l.byString[cmd.Command], cmd)
	return true
}

func (l *Loader) dedupe(events []*FileEvent) []*FileEvent {
	kept := DedupeByPath(events)
	if len(kept) != len(events) {
		l.log.Info("discarded duplicate file events", zap.Int("count", len(events)-len(kept)))
	}
	return kept
}

func (l *Loader) keepUnder(events []*FileEvent, dir string, log *zap.Logger) []*FileEvent {
	kept := events[:0]
	for _, e := range events {
		if IsSubpath(e.Path, dir) {
			kept = append(kept, e)
			continue
		}
		log.Info("ignoring file event outside working directory",
			zap.String("path", e.Path), zap.Stringer("direction", e.Direction))
	}
	return kept
}

// findDuplicate returns an accepted command with the same command string and the
// same read and write path sets.
func (l *Loader) findDuplicate(cmd *Command) *Command {
	for _, c := range l.byString[cmd.Command] {
		if samePaths(c.WriteEvents, cmd.WriteEvents) && samePaths(c.ReadEvents, cmd.ReadEvents) {
			return c
		}
	}
	return nil
}

// DedupeByPath drops events whose path repeats. shournal tracks files by inode, so
// one path may show up several times around moves and deletes; the last event for
// a path wins and the survivors keep their relative order.
func DedupeByPath(events []*FileEvent) []*FileEvent {
	seen := make(map[string]bool, len(events))
	keep := make([]bool, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		if !seen[events[i].Key()] {
			seen[events[i].Key()] = true
			keep[i] = true
		}
	}
	result := make([]*FileEvent, 0, len(seen))
	for i, e := range events {
		if keep[i] {
			result = append(result, e)
		}
	}
	return result
}

func samePaths(a, b []*FileEvent) bool {
	set := make(map[string]bool, len(a))
	for _, e := range a {
		set[e.Key()] = true
	}
	other := make(map[string]bool, len(b))
	for _, e := range b {
		if !set[e.Key()] {
			return false
		}
		other[e.Key()] = true
	}
	return len(other) == len(set)
}

// IsSubpath reports whether p lies strictly below dir. Both must be clean absolute
// slash paths; the filesystem is not consulted.
func IsSubpath(p, dir string) bool {
	prefix := dir
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return len(p) > len(prefix) && strings.HasPrefix(p, prefix)
}
