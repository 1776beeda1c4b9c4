package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"

	"github.com/dkeye/watchparty/internal/app"
	"github.com/dkeye/watchparty/internal/app/orch"
	"github.com/dkeye/watchparty/internal/config"
	"github.com/dkeye/watchparty/internal/core"
)

func newTestRouter(t *testing.T) (http.Handler, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	static := t.TempDir()
	if err := os.WriteFile(filepath.Join(static, "index.html"), []byte("<p>party</p>"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}
	cfg := &config.Config{
		Mode:            "test",
		Port:            3000,
		StaticPath:      static,
		ReadLimit:       4096,
		PingPeriod:      time.Minute,
		WriteWait:       time.Second,
		SendBuffer:      8,
		Secret:          "test-secret",
		MaxParticipants: 4,
		AllowedOrigins:  []string{"http://localhost:8081"},
		Backpressure:    "drop",
	}
	reg, err := app.NewRegistry([]string{"ann", "bob"}, cfg.MaxParticipants)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	o := orch.New(reg, app.DropPolicy{}, []webrtc.ICEServer{{URLs: []string{"stun:stun.example.org:3478"}}})
	return SetupRouter(context.Background(), cfg, o), o
}

func get(h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndIndex(t *testing.T) {
	h, _ := newTestRouter(t)
	if rec := get(h, "/health", nil); rec.Code != http.StatusOK {
		t.Fatalf("/health status=%d", rec.Code)
	}
	rec := get(h, "/", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "<p>party</p>" {
		t.Fatalf("/ status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestRoomEndpoint(t *testing.T) {
	h, o := newTestRouter(t)
	if _, err := o.Registry.Admit("X", "ann"); err != nil {
		t.Fatalf("Admit: %v", err)
	}
	o.Connect(app.NewSession("X", nopConn{}, "", app.JoinLimit{}))
	o.Connect(app.NewSession("Y", nopConn{}, "", app.JoinLimit{}))

	rec := get(h, "/api/room", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"X"`) {
		t.Fatalf("connection id exposed: %s", rec.Body.String())
	}
	var body struct {
		Usernames       []string `json:"usernames"`
		Count           int      `json:"count"`
		MaxParticipants int      `json:"maxParticipants"`
		Connections     int      `json:"connections"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.MaxParticipants != 4 || len(body.Usernames) != 1 || body.Usernames[0] != "ann" || body.Connections != 2 {
		t.Fatalf("body=%+v", body)
	}
}

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func TestICEServersEndpoint(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(h, "/api/ice-servers", nil)
	var body struct {
		ICEServers []webrtc.ICEServer `json:"iceServers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.ICEServers) != 1 || body.ICEServers[0].URLs[0] != "stun:stun.example.org:3478" {
		t.Fatalf("body=%s", rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(h, "/api/room", http.Header{"Origin": {"http://localhost:8081"}})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8081" {
		t.Fatalf("allow-origin=%q", got)
	}

	rec = get(h, "/api/room", http.Header{"Origin": {"http://evil.example"}})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign origin status=%d", rec.Code)
	}
}

func TestClientTokenCookie(t *testing.T) {
	h, _ := newTestRouter(t)
	rec := get(h, "/health", nil)
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatalf("no session cookie set")
	}

	// The same browser keeps its session: no new cookie is issued.
	header := http.Header{}
	for _, c := range cookies {
		header.Add("Cookie", c.Name+"="+c.Value)
	}
	if again := get(h, "/health", header); len(again.Result().Cookies()) != 0 {
		t.Fatalf("existing session re-issued")
	}
}
