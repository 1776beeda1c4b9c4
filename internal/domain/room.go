package domain

const (
	// DefaultMaxParticipants is the room capacity when none is configured.
	DefaultMaxParticipants = 4
	// MaxChatTextLen is counted in characters, not bytes.
	MaxChatTextLen = 800
)

// TruncateText cuts s to at most max characters.
func TruncateText(s string, max int) string {
	if max < 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
