// Package journal models commands recorded by shournal together with the files they
// read and wrote, and decodes shournal's JSON line output.
package journal

import "encoding/json"

// Direction tags a file event as a read or a write.
type Direction int

const (
	Read Direction = iota
	Write
)

// String returns "read" or "write".
func (d Direction) String() string {
	if d == Write {
		return "write"
	}
	return "read"
}

// Section returns the rule section the direction maps to: "input" or "output".
func (d Direction) Section() string {
	if d == Write {
		return "output"
	}
	return "input"
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Write {
		return Read
	}
	return Write
}

// FileEvent is one observed read or write of a path.
//
// Events are identified by Path alone: two events with equal paths but different
// sizes, hashes or ids are the same key for deduplication and duplicate-command
// detection. Read and write events never compare equal.
type FileEvent struct {
	ID             int64           `json:"id"`
	Path           string          `json:"path"`
	Size           int64           `json:"size"`
	Hash           json.RawMessage `json:"hash,omitempty"`
	IsStoredToDisk bool            `json:"isStoredToDisk,omitempty"`

	// Direction is set from the event list the event belongs to.
	Direction Direction `json:"-"`

	// Name is the placeholder name assigned during rewriting, empty when the event is
	// referenced by an unqualified placeholder or not referenced at all.
	Name string `json:"-"`
}

// Key is the identity used for deduplication.
func (e *FileEvent) Key() string {
	return e.Path
}

// Command is a shell command line as recorded in the shell history, with the
// working directory it ran in and the files it touched.
type Command struct {
	ID          int64  `json:"id"`
	Command     string `json:"command"`
	ReturnValue int    `json:"returnValue"`
	Username    string `json:"username,omitempty"`
	Hostname    string `json:"hostname,omitempty"`
	SessionUUID string `json:"sessionUuid,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	WorkingDir  string `json:"workingDir"`

	ReadEvents  []*FileEvent `json:"fileReadEvents"`
	WriteEvents []*FileEvent `json:"fileWriteEvents"`
}

// Events returns the events of direction d.
func (c *Command) Events(d Direction) []*FileEvent {
	if d == Write {
		return c.WriteEvents
	}
	return c.ReadEvents
}

// TagDirections sets Direction on every event from the list holding it.
func (c *Command) TagDirections() {
	for _, e := range c.ReadEvents {
		e.Direction = Read
	}
	for _, e := range c.WriteEvents {
		e.Direction = Write
	}
}

// NewCommand builds a command from plain paths, as used by callers that have no
// shournal record at hand.
func NewCommand(command, workingDir string, reads, writes []string) *Command {
	c := &Command{Command: command, WorkingDir: workingDir}
	for _, p := range reads {
		c.ReadEvents = append(c.ReadEvents, &FileEvent{Path: p, Direction: Read})
	}
	for _, p := range writes {
		c.WriteEvents = append(c.WriteEvents, &FileEvent{Path: p, Direction: Write})
	}
	return c
}
