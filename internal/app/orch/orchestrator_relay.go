package orch

import (
	"encoding/json"

	"github.com/dkeye/watchparty/internal/domain"
	"github.com/rs/zerolog/log"
)

// Signal forwards data from sid to target untouched. Both must be members;
// otherwise it is dropped without telling anyone.
func (o *Orchestrator) Signal(sid, target domain.ConnID, data json.RawMessage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.Registry.IsMember(sid) || !o.Registry.IsMember(target) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("to", string(target)).Msg("signal dropped")
		return
	}
	ts, ok := o.sessions[target]
	if !ok {
		return
	}
	o.send(ts, SignalOut{Type: TypeSignal, From: sid, Data: data})
}

// Chat broadcasts text to every connection, the sender included.
func (o *Orchestrator) Chat(sid domain.ConnID, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.Registry.Get(sid)
	if !ok {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("chat dropped")
		return
	}
	o.broadcast(ChatOut{
		Type:     TypeChatMessage,
		From:     m.Username,
		SenderID: sid,
		Text:     domain.TruncateText(text, domain.MaxChatTextLen),
		At:       o.now(),
	})
}

// Sync stamps the client's playback event with its origin and server time and
// broadcasts it to everyone but the origin. Other fields pass through as-is.
func (o *Orchestrator) Sync(sid domain.ConnID, fields map[string]json.RawMessage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.Registry.IsMember(sid) {
		log.Debug().Str("module", "orch").Str("sid", string(sid)).Msg("sync dropped")
		return
	}

	out := make(map[string]json.RawMessage, len(fields)+3)
	for k, v := range fields {
		out[k] = v
	}
	from, _ := json.Marshal(sid)
	at, _ := json.Marshal(o.now())
	out["type"] = json.RawMessage(`"` + TypeSyncEvent + `"`)
	out["from"] = from
	out["at"] = at
	o.broadcast(out, sid)
}
