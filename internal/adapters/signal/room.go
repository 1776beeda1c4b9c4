package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/domain"
)

func (ctl *SignalWSController) handleJoin(sid domain.ConnID, p inbound) {
	username := stringValue(p.Username)
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("username", username).Msg("join")
	ctl.Orch.Join(sid, username)
}

// handleLeave leaves the room; the connection stays open.
func (ctl *SignalWSController) handleLeave(sid domain.ConnID) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.Orch.Leave(sid)
}
