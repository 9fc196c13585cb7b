package playback

import (
	"fmt"
	"time"
)

type State int

const (
	Idle State = iota
	Loading
	Playing
	Paused
	Hidden
)

var stateNames = [...]string{"idle", "loading", "playing", "paused", "hidden"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

type CommandKind int

const (
	CommandLoad CommandKind = iota
	CommandMute
	CommandPlay
	CommandPause
	CommandSeek
)

var commandNames = [...]string{"load", "mute", "play", "pause", "seek"}

func (k CommandKind) String() string {
	if int(k) < len(commandNames) {
		return commandNames[k]
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

type Command struct {
	Kind     CommandKind
	URL      string
	Muted    bool
	Position time.Duration
}

var (
	cmdMute   = Command{Kind: CommandMute, Muted: true}
	cmdPlay   = Command{Kind: CommandPlay}
	cmdPause  = Command{Kind: CommandPause}
	cmdRewind = Command{Kind: CommandSeek, Position: 0}
)

// Input is one transition step for a single row: the previous and current
// values of "is the active index" and "user has interacted", plus whether
// the row's player has loaded its source.
type Input struct {
	WasActive     bool
	Active        bool
	WasInteracted bool
	Interacted    bool
	Ready         bool
}

// Reduce returns the next state of a row and the player commands that move
// it there, in the order they must be issued.
func Reduce(s State, in Input) (State, []Command) {
	switch {
	case in.WasActive && !in.Active:
		return Hidden, []Command{cmdPause, cmdRewind}
	case !in.Active:
		if s == Playing || s == Paused || s == Loading {
			return Hidden, []Command{cmdPause, cmdRewind}
		}
		return Hidden, nil
	case !in.Interacted:
		return Idle, nil
	case !in.WasActive || !in.WasInteracted || s == Idle || s == Hidden:
		if !in.Ready {
			return Loading, nil
		}
		return Playing, []Command{cmdMute, cmdPlay}
	case s == Loading && in.Ready:
		return Playing, []Command{cmdMute, cmdPlay}
	default:
		return s, nil
	}
}

// Toggle flips a manual pause on the active row.
func Toggle(s State) (State, []Command) {
	switch s {
	case Playing:
		return Paused, []Command{cmdPause}
	case Paused:
		return Playing, []Command{cmdPlay}
	default:
		return s, nil
	}
}

// Teardown is issued when a row is unmounted, whatever its state.
func Teardown() []Command {
	return []Command{cmdPause, cmdRewind}
}

// Settle returns the commands that put a player into state s. It is used
// to re-issue a batch that failed part way.
func Settle(s State) []Command {
	switch s {
	case Playing:
		return []Command{cmdMute, cmdPlay}
	case Paused:
		return []Command{cmdPause}
	case Hidden:
		return []Command{cmdPause, cmdRewind}
	default:
		return nil
	}
}
