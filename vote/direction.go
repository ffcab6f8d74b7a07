// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package vote

import "fmt"

// Direction is a caller's own vote on an item.
type Direction int

const (
	None Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "none"
	}
}

// ParseDirection accepts "up", "down" and, for a missing vote, "" or "none".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "", "none":
		return None, nil
	}
	return None, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Transition returns the tally delta and the resulting own direction when
// requested is applied on top of current. Repeating the current direction
// withdraws the vote; switching sides moves the tally by two.
func Transition(current, requested Direction) (delta int, next Direction) {
	switch {
	case current == requested:
		return -weight(requested), None
	case current == None:
		return weight(requested), requested
	default:
		return weight(requested) - weight(current), requested
	}
}

func weight(d Direction) int {
	switch d {
	case Up:
		return 1
	case Down:
		return -1
	}
	return 0
}
