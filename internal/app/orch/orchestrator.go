package orch

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/watchparty/internal/app"
	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// Orchestrator drives every connection's lifecycle and relays traffic between
// them. Each event is handled under mu together with the sends it causes, so
// all connections observe roster changes in the same order.
type Orchestrator struct {
	Registry   *app.Registry
	Policy     app.Policy
	ICEServers []webrtc.ICEServer
	Now        func() time.Time

	mu       sync.Mutex
	sessions map[domain.ConnID]*app.Session
}

func New(reg *app.Registry, policy app.Policy, ice []webrtc.ICEServer) *Orchestrator {
	if policy == nil {
		policy = app.DropPolicy{}
	}
	return &Orchestrator{
		Registry:   reg,
		Policy:     policy,
		ICEServers: ice,
		Now:        time.Now,
		sessions:   make(map[domain.ConnID]*app.Session),
	}
}

// Connect registers a new transport connection in the Unjoined state.
func (o *Orchestrator) Connect(s *app.Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessions[s.ID] = s
	log.Info().Str("module", "orch").Str("sid", string(s.ID)).Str("client", s.Client).Int("connections", len(o.sessions)).Msg("connected")
}

// Disconnect ends the session. A departing member is announced to everyone
// still connected; a connection that never joined leaves silently.
func (o *Orchestrator) Disconnect(sid domain.ConnID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.sessions[sid]
	if !ok {
		return
	}
	prev := s.Close()
	delete(o.sessions, sid)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("state", prev.String()).Msg("disconnected")

	if m, removed := o.Registry.Remove(sid); removed {
		o.broadcast(ParticipantEvent{Type: TypeParticipantLeft, ID: m.ID, Username: m.Username})
	}
}

// State reports the lifecycle state of sid; StateLeft when unknown.
func (o *Orchestrator) State(sid domain.ConnID) app.SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.sessions[sid]; ok {
		return s.State()
	}
	return app.StateLeft
}

func (o *Orchestrator) ConnectionCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sessions)
}

func (o *Orchestrator) now() int64 { return o.Now().UnixMilli() }

func encode(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("encode frame")
		return nil, false
	}
	return b, true
}

func (o *Orchestrator) send(s *app.Session, v any) {
	if f, ok := encode(v); ok {
		o.deliver(s, f)
	}
}

// broadcast sends v to every connection except the ones in exclude.
// Callers hold mu.
func (o *Orchestrator) broadcast(v any, exclude ...domain.ConnID) {
	f, ok := encode(v)
	if !ok {
		return
	}
	sent := 0
	for sid, s := range o.sessions {
		if excluded(sid, exclude) {
			continue
		}
		if o.deliver(s, f) {
			sent++
		}
	}
	log.Debug().Str("module", "orch").Int("sent_to", sent).Int("excluded", len(exclude)).Msg("broadcast result")
}

func excluded(sid domain.ConnID, set []domain.ConnID) bool {
	for _, e := range set {
		if e == sid {
			return true
		}
	}
	return false
}

func (o *Orchestrator) deliver(s *app.Session, f core.Frame) bool {
	err := s.Signal.TrySend(f)
	if err == nil {
		return true
	}
	if !errors.Is(err, core.ErrBackpressure) {
		log.Debug().Err(err).Str("module", "orch").Str("sid", string(s.ID)).Msg("send skipped")
		return false
	}
	switch o.Policy.OnBackPressure(s) {
	case app.CloseConnection:
		log.Warn().Str("module", "orch").Str("sid", string(s.ID)).Msg("slow connection closed")
		// The transport read loop reports the disconnect afterwards.
		s.Signal.Close()
	case app.DropFrame:
		log.Warn().Str("module", "orch").Str("sid", string(s.ID)).Msg("frame dropped")
	}
	return false
}
