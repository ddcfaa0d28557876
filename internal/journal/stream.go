package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hpungsan/shrule/internal/errors"
)

// Line prefixes of shournal's JSON output format.
const (
	headerPrefix  = "HEADER:"
	commandPrefix = "COMMAND:"
	footerPrefix  = "FOOTER:"
)

// maxLineBytes bounds a single COMMAND line. Commands with many file events can be
// large, so this is well above bufio's default.
const maxLineBytes = 64 << 20

// Header is the first line of a shournal query result.
type Header struct {
	// PathToReadFiles is where shournal keeps read files it stored (scripts etc.).
	PathToReadFiles string `json:"pathToReadFiles"`
}

// Stream is a decoded shournal query result.
type Stream struct {
	Header   Header
	Commands []*Command
}

// Decode reads the line format produced by
// `shournal --query --output-format json`.
func Decode(r io.Reader) (*Stream, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	stream := &Stream{}
	lineNum := 0
	sawHeader := false

	for scanner.Scan() {
		lineNum++
		line := bytes.TrimRight(scanner.Bytes(), " \t\r")
		if len(line) == 0 {
			continue
		}

		if !sawHeader {
			payload, ok := bytes.CutPrefix(line, []byte(headerPrefix))
			if !ok {
				return nil, errors.NewInvalidInput(lineNum,
					"unable to parse shournal's output - please use the json output format, "+
						"e.g. shournal --query --output-format json --history 5")
			}
			if err := json.Unmarshal(payload, &stream.Header); err != nil {
				return nil, errors.NewInvalidInput(lineNum, fmt.Sprintf("invalid header JSON: %v", err))
			}
			sawHeader = true
			continue
		}

		if payload, ok := bytes.CutPrefix(line, []byte(commandPrefix)); ok {
			var cmd Command
			if err := json.Unmarshal(payload, &cmd); err != nil {
				return nil, errors.NewInvalidInput(lineNum, fmt.Sprintf("invalid command JSON: %v", err))
			}
			cmd.TagDirections()
			stream.Commands = append(stream.Commands, &cmd)
			continue
		}

		if bytes.HasPrefix(line, []byte(footerPrefix)) {
			continue
		}

		return nil, errors.NewInvalidInput(lineNum, "expected COMMAND: or FOOTER: line")
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.NewInvalidInput(lineNum, fmt.Sprintf("failed to read input: %v", err))
	}
	if !sawHeader {
		return nil, errors.NewInvalidInput(0, "no input given")
	}

	return stream, nil
}
