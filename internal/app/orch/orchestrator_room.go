package orch

import (
	"errors"
	"fmt"

	"github.com/dkeye/watchparty/internal/app"
	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join admits sid under rawUsername. The joiner gets joined-room or
// join-error privately; the others learn about a new member by broadcast.
// A session that is already joined is left untouched.
func (o *Orchestrator) Join(sid domain.ConnID, rawUsername string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[sid]
	if !ok {
		return
	}
	if s.State() != app.StateUnjoined {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("state", s.State().String()).Msg("join ignored")
		return
	}
	if !s.AllowJoin() {
		log.Warn().Str("module", "orch").Str("sid", string(sid)).Msg("join rate limited")
		o.send(s, JoinError{Type: TypeJoinError, Code: CodeRateLimited, Message: "Too many join attempts, slow down."})
		return
	}

	s.BeginJoin()
	m, err := o.Registry.Admit(sid, rawUsername)
	s.FinishJoin(err == nil)
	if err != nil {
		log.Info().Err(err).Str("module", "orch").Str("sid", string(sid)).Str("username", rawUsername).Msg("join rejected")
		o.send(s, o.joinError(err))
		return
	}

	o.send(s, JoinedRoom{
		Type:         TypeJoinedRoom,
		SelfID:       sid,
		Participants: o.Registry.Snapshot(),
		Limits:       Limits{MaxParticipants: o.Registry.Capacity()},
		ICEServers:   o.ICEServers,
	})
	o.broadcast(ParticipantEvent{Type: TypeParticipantJoined, ID: m.ID, Username: m.Username}, sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("username", m.Username).Msg("joined room")
}

// Leave takes a joined member out of the room while keeping its connection
// open; it may join again later.
func (o *Orchestrator) Leave(sid domain.ConnID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[sid]
	if !ok || !s.Leave() {
		return
	}
	if m, removed := o.Registry.Remove(sid); removed {
		o.broadcast(ParticipantEvent{Type: TypeParticipantLeft, ID: m.ID, Username: m.Username})
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("left room")
}

func (o *Orchestrator) joinError(err error) JoinError {
	je := JoinError{Type: TypeJoinError}
	switch {
	case errors.Is(err, app.ErrNotAllowed):
		je.Code, je.Message = CodeNotAllowed, "Username is not allowed for this watch party link."
	case errors.Is(err, app.ErrUsernameTaken):
		je.Code, je.Message = CodeUsernameTaken, "That username is already in use."
	case errors.Is(err, app.ErrRoomFull):
		je.Code, je.Message = CodeRoomFull, fmt.Sprintf("Room is full (max %d people).", o.Registry.Capacity())
	default:
		je.Code, je.Message = CodeInternal, "Could not join the room."
	}
	return je
}
