// Package input supplies player commands to the player's behaviour leaf.
//
// NextInput blocks until a command is available. That halts the whole
// simulation, which is the intended pacing of a turn-based game.
package input

import (
	"context"
	"errors"
	"fmt"

	"github.com/cory-johannsen/rogue/internal/game/geom"
)

// ErrQuit is returned once the player asked to stop or the source is exhausted.
var ErrQuit = errors.New("input: quit")

// Command is what the player asked for.
type Command uint8

const (
	CommandWait Command = iota
	CommandMove
	CommandFire
	CommandQuit
)

func (c Command) String() string {
	switch c {
	case CommandWait:
		return "wait"
	case CommandMove:
		return "move"
	case CommandFire:
		return "fire"
	case CommandQuit:
		return "quit"
	}
	return fmt.Sprintf("command(%d)", uint8(c))
}

// Event is one player command. Direction is set for move and fire.
type Event struct {
	Command   Command
	Direction geom.Direction
}

// Wait returns a wait event.
func Wait() Event { return Event{Command: CommandWait} }

// Move returns a move event toward d.
func Move(d geom.Direction) Event { return Event{Command: CommandMove, Direction: d} }

// Fire returns a fire event toward d.
func Fire(d geom.Direction) Event { return Event{Command: CommandFire, Direction: d} }

// Source yields player commands.
type Source interface {
	// NextInput blocks until the next event. It returns ErrQuit when no more
	// input will come.
	NextInput() (Event, error)
}

// Scripted replays a fixed list of events, then reports ErrQuit.
type Scripted struct {
	events []Event
	next   int
}

// NewScripted returns a Source replaying events in order.
func NewScripted(events ...Event) *Scripted {
	return &Scripted{events: append([]Event(nil), events...)}
}

// NextInput returns the next scripted event.
func (s *Scripted) NextInput() (Event, error) {
	if s.next >= len(s.events) {
		return Event{}, ErrQuit
	}
	e := s.events[s.next]
	s.next++
	if e.Command == CommandQuit {
		return Event{}, ErrQuit
	}
	return e, nil
}

// Remaining returns how many events have not been consumed.
func (s *Scripted) Remaining() int { return len(s.events) - s.next }

// Channel reads events from a channel until it closes or ctx is done.
type Channel struct {
	ctx    context.Context
	events <-chan Event
}

// NewChannel returns a Source reading from events.
//
// Precondition: ctx and events must be non-nil.
func NewChannel(ctx context.Context, events <-chan Event) *Channel {
	if ctx == nil || events == nil {
		panic("input.NewChannel: ctx and events must not be nil")
	}
	return &Channel{ctx: ctx, events: events}
}

// NextInput blocks for the next event.
//
// Postcondition: returns ErrQuit when the channel closes or a quit event
// arrives, and ctx.Err() when ctx is done.
func (c *Channel) NextInput() (Event, error) {
	select {
	case <-c.ctx.Done():
		return Event{}, c.ctx.Err()
	case e, ok := <-c.events:
		if !ok || e.Command == CommandQuit {
			return Event{}, ErrQuit
		}
		return e, nil
	}
}

// Forward reads src on its own goroutine and delivers its events on the
// returned channel, so a blocking reader can be abandoned through a Channel.
// The channel closes when src fails or ctx is done.
func Forward(ctx context.Context, src Source) <-chan Event {
	if src == nil {
		panic("input.Forward: source must not be nil")
	}
	ch := make(chan Event)
	go func() {
		defer close(ch)
		for {
			ev, err := src.NextInput()
			if err != nil {
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
