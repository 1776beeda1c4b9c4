package app

import (
	"time"

	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
	"golang.org/x/time/rate"
)

type SessionState int

const (
	StateUnjoined SessionState = iota
	StateJoining
	StateJoined
	StateLeft
)

func (s SessionState) String() string {
	switch s {
	case StateUnjoined:
		return "unjoined"
	case StateJoining:
		return "joining"
	case StateJoined:
		return "joined"
	case StateLeft:
		return "left"
	default:
		return "unknown"
	}
}

// Session is the per-connection lifecycle record. It is not safe for
// concurrent use; the orchestrator serializes every access.
type Session struct {
	ID     domain.ConnID
	Signal core.SignalConnection
	// Client is the browser token the connection arrived with, for log
	// correlation only.
	Client string

	state SessionState
	joins *rate.Limiter
}

// JoinLimit bounds join attempts per connection. Zero PerMinute disables it.
type JoinLimit struct {
	PerMinute int
	Burst     int
}

func NewSession(id domain.ConnID, sc core.SignalConnection, client string, limit JoinLimit) *Session {
	s := &Session{ID: id, Signal: sc, Client: client, state: StateUnjoined}
	if limit.PerMinute > 0 {
		burst := limit.Burst
		if burst <= 0 {
			burst = 1
		}
		s.joins = rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit.PerMinute)), burst)
	}
	return s
}

func (s *Session) State() SessionState { return s.state }

// AllowJoin consumes one join attempt token.
func (s *Session) AllowJoin() bool {
	if s.joins == nil {
		return true
	}
	return s.joins.Allow()
}

// BeginJoin moves Unjoined to Joining. Any other state refuses.
func (s *Session) BeginJoin() bool {
	if s.state != StateUnjoined {
		return false
	}
	s.state = StateJoining
	return true
}

// FinishJoin resolves a pending join: Joined on success, back to Unjoined on
// failure so the client may retry.
func (s *Session) FinishJoin(admitted bool) {
	if s.state != StateJoining {
		return
	}
	if admitted {
		s.state = StateJoined
	} else {
		s.state = StateUnjoined
	}
}

// Leave returns a joined session to Unjoined.
func (s *Session) Leave() bool {
	if s.state != StateJoined {
		return false
	}
	s.state = StateUnjoined
	return true
}

// Close is terminal and returns the state the session was in.
func (s *Session) Close() SessionState {
	prev := s.state
	s.state = StateLeft
	return prev
}
