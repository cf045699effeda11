// Package game drives a single play session: the START -> PLAYING -> GAMEOVER
// state machine, the per-round countdown and the level counter.
//
// The machine knows nothing about rendering. Front-ends feed it clicks and
// scheduler ticks and read back snapshots.
package game

import (
	"errors"
	"fmt"
)

// State is a node of the session state machine.
type State int

const (
	StateStart State = iota
	StatePlaying
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StatePlaying:
		return "playing"
	case StateGameOver:
		return "gameover"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event triggers a transition.
type Event int

const (
	EventStartGame Event = iota
	EventCorrectClick
	EventWrongClick
	EventTimerExpire
)

func (e Event) String() string {
	switch e {
	case EventStartGame:
		return "start-game"
	case EventCorrectClick:
		return "correct-click"
	case EventWrongClick:
		return "wrong-click"
	case EventTimerExpire:
		return "timer-expire"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Sentinel kinds for session errors.
var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidCell       = errors.New("cell index out of range")
	ErrInvalidRoundTime  = errors.New("round time must be positive")
)

// transitions is the complete edge set; anything missing is rejected.
var transitions = map[State]map[Event]State{
	StateStart: {
		EventStartGame: StatePlaying,
	},
	StatePlaying: {
		EventCorrectClick: StatePlaying,
		EventWrongClick:   StateGameOver,
		EventTimerExpire:  StateGameOver,
	},
	StateGameOver: {
		EventStartGame: StatePlaying,
	},
}

// Next returns the state reached from s on e.
func Next(s State, e Event) (State, error) {
	if to, ok := transitions[s][e]; ok {
		return to, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}
