package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pion/webrtc/v4"
)

// ICEServer is the config file shape of one RTCIceServer entry.
type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

func (s ICEServer) validate() error {
	if len(s.URLs) == 0 {
		return errors.New("at least one url is required")
	}
	turn := false
	for _, raw := range s.URLs {
		url := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case strings.HasPrefix(url, "stun:"), strings.HasPrefix(url, "stuns:"):
		case strings.HasPrefix(url, "turn:"), strings.HasPrefix(url, "turns:"):
			turn = true
		default:
			return fmt.Errorf("unsupported ICE url %q", raw)
		}
	}
	if turn && (s.Username == "" || s.Credential == "") {
		return errors.New("turn urls require username and credential")
	}
	return nil
}

// WebRTCICEServers converts the configured servers to the pion model, which
// also carries the JSON field names browsers expect.
func (c *Config) WebRTCICEServers() []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(c.ICEServers))
	for _, s := range c.ICEServers {
		urls := make([]string, 0, len(s.URLs))
		for _, u := range s.URLs {
			urls = append(urls, strings.TrimSpace(u))
		}
		server := webrtc.ICEServer{URLs: urls, Username: s.Username}
		if s.Credential != "" {
			server.Credential = s.Credential
		}
		out = append(out, server)
	}
	return out
}
