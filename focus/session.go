// Package focus implements the focus/break timer state machine. It is driven
// by one Tick per second and knows nothing about persistence; callers credit
// the minutes returned by Finish.
package focus

import (
	"errors"
	"fmt"
)

type State int

const (
	Ready State = iota
	Running
	Paused
	Break
	Completed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Break:
		return "break"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrInvalidTransition = errors.New("focus: invalid transition")
	// ErrNotCompleted is returned by Finish before the break has ended. Exiting
	// then discards the elapsed time.
	ErrNotCompleted = errors.New("focus: session not completed")
)

// Session is one focus block followed by one break.
type Session struct {
	state          State
	focusTotal     int
	breakTotal     int
	focusRemaining int
	breakRemaining int
	elapsed        int
}

// NewSession creates a session from durations in minutes.
func NewSession(focusMinutes, breakMinutes int) (*Session, error) {
	if focusMinutes <= 0 || breakMinutes <= 0 {
		return nil, fmt.Errorf("focus: durations must be positive, got %d/%d", focusMinutes, breakMinutes)
	}
	s := &Session{focusTotal: focusMinutes * 60, breakTotal: breakMinutes * 60}
	s.reset()
	return s, nil
}

func (s *Session) reset() {
	s.state = Ready
	s.focusRemaining = s.focusTotal
	s.breakRemaining = s.breakTotal
}

func (s *Session) State() State         { return s.state }
func (s *Session) FocusRemaining() int  { return s.focusRemaining }
func (s *Session) BreakRemaining() int  { return s.breakRemaining }
func (s *Session) ElapsedSeconds() int  { return s.elapsed }
func (s *Session) CreditedMinutes() int { return s.elapsed / 60 }

func (s *Session) transition(to State) error {
	s.state = to
	return nil
}

func (s *Session) require(op string, from ...State) error {
	for _, st := range from {
		if s.state == st {
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s.state)
}

func (s *Session) Start() error {
	if err := s.require("start", Ready); err != nil {
		return err
	}
	return s.transition(Running)
}

func (s *Session) Pause() error {
	if err := s.require("pause", Running); err != nil {
		return err
	}
	return s.transition(Paused)
}

func (s *Session) Resume() error {
	if err := s.require("resume", Paused); err != nil {
		return err
	}
	return s.transition(Running)
}

// SkipToBreak ends the focus block early. Elapsed time is kept.
func (s *Session) SkipToBreak() error {
	if err := s.require("skip to break", Running, Paused); err != nil {
		return err
	}
	s.focusRemaining = 0
	return s.transition(Break)
}

func (s *Session) SkipBreak() error {
	if err := s.require("skip break", Break); err != nil {
		return err
	}
	s.breakRemaining = 0
	return s.transition(Completed)
}

// Tick advances the session by one second. Only Running accrues elapsed
// time; the focus countdown reaching zero starts the break and the break
// countdown reaching zero completes the session.
func (s *Session) Tick() {
	switch s.state {
	case Running:
		s.elapsed++
		if s.focusRemaining <= 1 {
			s.focusRemaining = 0
			s.state = Break
			return
		}
		s.focusRemaining--
	case Break:
		if s.breakRemaining <= 1 {
			s.breakRemaining = 0
			s.state = Completed
			return
		}
		s.breakRemaining--
	}
}

// NewSession restarts the countdowns. Total elapsed time carries over, so a
// later Finish credits every completed block.
func (s *Session) NewSession() {
	s.reset()
}

// Abandon drops the session without crediting anything.
func (s *Session) Abandon() {
	s.elapsed = 0
	s.reset()
}

// Finish returns the minutes to credit, floor(elapsed/60). It fails with
// ErrNotCompleted unless the session reached Completed.
func (s *Session) Finish() (int, error) {
	if s.state != Completed {
		return 0, ErrNotCompleted
	}
	return s.CreditedMinutes(), nil
}

// Progress is the percentage of the current phase that has passed.
func (s *Session) Progress() float64 {
	if s.state == Break {
		return float64(s.breakTotal-s.breakRemaining) / float64(s.breakTotal) * 100
	}
	if s.state == Completed {
		return 100
	}
	return float64(s.focusTotal-s.focusRemaining) / float64(s.focusTotal) * 100
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
