package signal

import "github.com/dkeye/watchparty/internal/app/orch"

func (ctl *SignalWSController) handlePing(
	conn *WsSignalConn,
) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: orch.TypePong,
	}
	ctl.sendJSON(conn, resp)
}
