// Copyright (c) 2026 CineScript. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package shotlist

import (
	"fmt"
	"slices"
)

// # Ordering Engine

// Direction is a single-step reorder request.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// IsValid reports whether d is a recognised [Direction].
func (d Direction) IsValid() bool {
	return d == DirectionUp || d == DirectionDown
}

/*
Reindex rewrites every shot number to match its position (1..N).

Description: Membership and relative order are preserved. The input slice is
never modified and calling Reindex on its own output is a no-op.

Parameters:
  - shots: []Shot

Returns:
  - []Shot: A new slice with contiguous numbering
*/
func Reindex(shots []Shot) []Shot {
	if shots == nil {
		return nil
	}

	reindexed := make([]Shot, len(shots))
	for position, shot := range shots {
		shot.Number = position + 1
		reindexed[position] = shot
	}

	return reindexed
}

/*
Move swaps the target shot with its neighbour in the given direction.

Description: An unknown target, an invalid direction, moving the first shot up
or the last shot down all return the input unchanged. Otherwise exactly one
adjacent pair trades places and the result is reindexed.

Parameters:
  - shots: []Shot
  - targetID: string
  - direction: Direction

Returns:
  - []Shot: Reordered shots, or the input slice when nothing moved
*/
func Move(shots []Shot, targetID string, direction Direction) []Shot {
	index, neighbour, ok := swapTarget(shots, targetID, direction)
	if !ok {
		return shots
	}

	moved := slices.Clone(shots)
	moved[index], moved[neighbour] = moved[neighbour], moved[index]

	return Reindex(moved)
}

// swapTarget locates the pair of positions a move would exchange.
func swapTarget(shots []Shot, targetID string, direction Direction) (index, neighbour int, ok bool) {
	index = slices.IndexFunc(shots, func(shot Shot) bool { return shot.ID == targetID })
	if index < 0 {
		return 0, 0, false
	}

	switch direction {
	case DirectionUp:
		neighbour = index - 1
	case DirectionDown:
		neighbour = index + 1
	default:
		return 0, 0, false
	}

	// Boundary moves are no-ops
	if neighbour < 0 || neighbour >= len(shots) {
		return 0, 0, false
	}

	return index, neighbour, true
}

// CheckNumbering returns an error when the shot numbers are not exactly 1..N.
func CheckNumbering(shots []Shot) error {
	for position, shot := range shots {
		if shot.Number != position+1 {
			return fmt.Errorf("shot %s at position %d is numbered %d", shot.ID, position+1, shot.Number)
		}
	}
	return nil
}
