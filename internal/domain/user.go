// Package domain contains entity without logic, just meta-data
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ConnID identifies one transport connection for its whole lifetime.
type ConnID string

// NewConnID returns a fresh random connection id.
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// NormalizeUsername trims surrounding whitespace and case-folds the name.
// Every username comparison in the room goes through this.
func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
