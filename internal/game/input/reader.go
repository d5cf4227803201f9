package input

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rogue/internal/game/geom"
)

// ErrUnknownCommand is returned by Parse for input matching no binding.
var ErrUnknownCommand = errors.New("input: unknown command")

// directionKeys binds vi keys and direction names.
var directionKeys = map[string]geom.Direction{
	"k": geom.North, "north": geom.North,
	"u": geom.Northeast, "northeast": geom.Northeast, "ne": geom.Northeast,
	"l": geom.East, "east": geom.East,
	"n": geom.Southeast, "southeast": geom.Southeast, "se": geom.Southeast,
	"j": geom.South, "south": geom.South,
	"b": geom.Southwest, "southwest": geom.Southwest, "sw": geom.Southwest,
	"h": geom.West, "west": geom.West,
	"y": geom.Northwest, "northwest": geom.Northwest, "nw": geom.Northwest,
}

// Parse converts one line into an Event.
//
// A line is a command word followed by optional arguments. A bare direction
// moves. "f" or "fire" takes a direction. "." or "wait" waits. "q" or
// "quit" quits.
//
// Postcondition: returns ErrUnknownCommand for an empty or unrecognised line.
func Parse(line string) (Event, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Event{}, fmt.Errorf("%w: empty line", ErrUnknownCommand)
	}
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case ".", "wait", "s":
		return Wait(), nil
	case "q", "quit":
		return Event{Command: CommandQuit}, nil
	case "f", "fire":
		if len(args) != 1 {
			return Event{}, fmt.Errorf("%w: fire needs one direction", ErrUnknownCommand)
		}
		d, ok := directionKeys[args[0]]
		if !ok {
			return Event{}, fmt.Errorf("%w: direction %q", ErrUnknownCommand, args[0])
		}
		return Fire(d), nil
	}
	if d, ok := directionKeys[cmd]; ok && len(args) == 0 {
		return Move(d), nil
	}
	return Event{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
}

// Reader parses events from lines of text, such as a terminal.
type Reader struct {
	scanner *bufio.Scanner
	prompt  io.Writer
	logger  *zap.Logger
}

// NewReader returns a Source reading lines from r. prompt, if non-nil,
// receives a short message for every line that fails to parse.
//
// Precondition: r and logger must be non-nil.
func NewReader(r io.Reader, prompt io.Writer, logger *zap.Logger) *Reader {
	if r == nil {
		panic("input.NewReader: reader must not be nil")
	}
	if logger == nil {
		panic("input.NewReader: logger must not be nil")
	}
	return &Reader{scanner: bufio.NewScanner(r), prompt: prompt, logger: logger}
}

// NextInput blocks until a line parses into an event. Unparseable lines are
// reported and skipped.
//
// Postcondition: returns ErrQuit on a quit command or end of input, and a
// wrapped read error otherwise.
func (r *Reader) NextInput() (Event, error) {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		e, err := Parse(line)
		if err != nil {
			if strings.TrimSpace(line) != "" {
				r.logger.Debug("ignoring input", zap.String("line", line), zap.Error(err))
				if r.prompt != nil {
					fmt.Fprintf(r.prompt, "unknown command %q\n", strings.TrimSpace(line))
				}
			}
			continue
		}
		if e.Command == CommandQuit {
			return Event{}, ErrQuit
		}
		return e, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("reading input: %w", err)
	}
	return Event{}, ErrQuit
}
