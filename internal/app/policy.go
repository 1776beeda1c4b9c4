package app

import "fmt"

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	CloseConnection
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(s *Session) BackpressureAction
}

type DropPolicy struct{}

func (DropPolicy) OnBackPressure(*Session) BackpressureAction { return DropFrame }

type ClosePolicy struct{}

func (ClosePolicy) OnBackPressure(*Session) BackpressureAction { return CloseConnection }

// PolicyByName maps the backpressure config value to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "close":
		return ClosePolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
