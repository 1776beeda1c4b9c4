package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/domain"
)

func (ctl *SignalWSController) handleRelaySignal(sid domain.ConnID, p inbound) {
	ctl.Orch.Signal(sid, domain.ConnID(stringValue(p.To)), p.Data)
}

func (ctl *SignalWSController) handleChat(sid domain.ConnID, p inbound) {
	ctl.Orch.Chat(sid, stringValue(p.Text))
}

func (ctl *SignalWSController) handleSync(sid domain.ConnID, data []byte) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad sync payload")
		return
	}
	ctl.Orch.Sync(sid, fields)
}
