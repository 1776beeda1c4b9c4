package signal

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/watchparty/internal/app"
	"github.com/dkeye/watchparty/internal/app/orch"
	"github.com/dkeye/watchparty/internal/config"
	"github.com/dkeye/watchparty/internal/core"
	"github.com/dkeye/watchparty/internal/domain"
)

type SignalWSController struct {
	Orch *orch.Orchestrator

	cfg      *config.Config
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config) *SignalWSController {
	ctl := &SignalWSController{Orch: o, cfg: cfg}
	allowed := normalizeOrigins(cfg.AllowedOrigins)
	ctl.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r, allowed)
		},
	}
	return ctl
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	return &WsSignalConn{conn: ws, send: make(chan core.Frame, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// HandleSignal upgrades the request and runs the connection until either side
// goes away. The connection id is assigned here and never reused.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := domain.NewConnID()
	client := c.GetString("client_token")

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("origin", c.Request.Header.Get("Origin")).Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client", client).Str("remote", ws.RemoteAddr().String()).Msg("new WS connection")

	conn := newWsSignalConn(ws, ctl.cfg.SendBuffer)
	sess := app.NewSession(sid, conn, client, app.JoinLimit{
		PerMinute: ctl.cfg.JoinRatePerMinute,
		Burst:     ctl.cfg.JoinBurst,
	})
	ctl.Orch.Connect(sess)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, sid, conn)
	}()
}

func normalizeOrigins(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, o := range in {
		out[strings.TrimSuffix(strings.ToLower(strings.TrimSpace(o)), "/")] = struct{}{}
	}
	return out
}

// originAllowed accepts requests without an Origin header, same-host pages,
// and the configured cross-origin list.
func originAllowed(r *http.Request, allowed map[string]struct{}) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if _, ok := allowed["*"]; ok {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	_, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
	return ok
}
