package engine

import "errors"

var (
	// ErrNoPathFound is returned when the open set is exhausted before the goal is reached.
	ErrNoPathFound = errors.New("no path found")
	// ErrInvalidEndpoint is returned when the start or goal cell is blocked.
	ErrInvalidEndpoint = errors.New("start or goal is blocked")
	// ErrSearchLimit is returned when a search exceeds its expansion budget.
	ErrSearchLimit = errors.New("search expansion limit reached")
	// ErrDegenerateMap is returned when the grid has no cell of the kind being sampled.
	ErrDegenerateMap = errors.New("degenerate map")
	// ErrNoRoute is returned when destination sampling gives up for the current tick.
	ErrNoRoute = errors.New("no route to any sampled destination")

	ErrHouseNotToggleable = errors.New("house cells cannot be toggled")
	ErrOutOfBounds        = errors.New("cell is outside the grid")
	ErrInvalidObstacle    = errors.New("invalid obstacle")
)
