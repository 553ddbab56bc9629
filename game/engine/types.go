package engine

import "fmt"

// CellKind represents the classification of a grid cell
type CellKind string

const (
	CellStreet   CellKind = "street"
	CellHouse    CellKind = "house"
	CellObstacle CellKind = "obstacle"

	// Validation constants
	MinGridSize        = 2
	MaxGridSize        = 256
	MaxObstaclePadding = 32
	MaxBulkTicks       = 500
	MaxHistoryEntries  = 200

	// Search and sampling limits
	DefaultMaxExpansions   = 1 << 16
	DefaultMaxGoalAttempts = 8
	DefaultObstaclePadding = 1
)

// Point identifies a grid cell by its column (X) and row (Y)
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String provides a string representation of Point
func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add returns p translated by d
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Neighbors returns the four orthogonally adjacent cells in search order
// (right, left, down, up).
func (p Point) Neighbors() [4]Point {
	return [4]Point{
		{X: p.X + 1, Y: p.Y},
		{X: p.X - 1, Y: p.Y},
		{X: p.X, Y: p.Y + 1},
		{X: p.X, Y: p.Y - 1},
	}
}

// Path is an ordered sequence of cells from start to goal, both inclusive.
// An empty path means no route exists.
type Path []Point

// Steps returns the number of moves the path takes
func (p Path) Steps() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Last returns the final point of the path
func (p Path) Last() (Point, bool) {
	if len(p) == 0 {
		return Point{}, false
	}
	return p[len(p)-1], true
}

// Clone returns a copy of the path that does not share storage
func (p Path) Clone() Path {
	if len(p) == 0 {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Orientation selects how a line obstacle extends from its origin
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Obstacle is a dynamically placed blocker. Duration is measured in ticks;
// zero means the obstacle stays until it is cleared.
type Obstacle struct {
	ID       string  `json:"id"`
	Trace    []Point `json:"trace"`
	Duration int     `json:"duration"`
}

// Contains reports whether p is one of the obstacle's trace cells
func (o Obstacle) Contains(p Point) bool {
	for _, t := range o.Trace {
		if t == p {
			return true
		}
	}
	return false
}

// TravelStatus is the state of the travel state machine
type TravelStatus string

const (
	StatusUninitialized TravelStatus = "uninitialized"
	StatusFollowing     TravelStatus = "following"
	StatusReplanning    TravelStatus = "replanning"
	StatusNoRoute       TravelStatus = "no_route"
	StatusCompleted     TravelStatus = "completed"
)

// EventType names the outcome of a single tick
type EventType string

const (
	EventStarted            EventType = "started"
	EventAdvanced           EventType = "advanced"
	EventReplanned          EventType = "replanned"
	EventDestinationReached EventType = "destination_reached"
	EventObstacleConsumed   EventType = "obstacle_consumed"
	EventNoRoute            EventType = "no_route"
)

// TravelEvent is returned by every tick for the renderer to react to
type TravelEvent struct {
	Tick     int          `json:"tick"`
	Type     EventType    `json:"type"`
	Status   TravelStatus `json:"status"`
	Position Point        `json:"position"`
	Goal     *Point       `json:"goal,omitempty"`
	Path     Path         `json:"path,omitempty"`
	Message  string       `json:"message"`
	Err      error        `json:"-"`
	Error    string       `json:"error,omitempty"`
}

// SimStats counts what happened over the lifetime of a simulation
type SimStats struct {
	Ticks               int `json:"ticks"`
	Steps               int `json:"steps"`
	Replans             int `json:"replans"`
	DestinationsReached int `json:"destinations_reached"`
	NoRouteTicks        int `json:"no_route_ticks"`
	ObstaclesConsumed   int `json:"obstacles_consumed"`
	ObstaclesExpired    int `json:"obstacles_expired"`
}

// ObstacleState is the persisted form of a tracked obstacle
type ObstacleState struct {
	Obstacle  Obstacle `json:"obstacle"`
	Remaining int      `json:"remaining"`
}

// SimState represents the complete, serialisable simulation state
type SimState struct {
	ConfigName      string          `json:"config_name"`
	Width           int             `json:"width"`
	Height          int             `json:"height"`
	Status          TravelStatus    `json:"status"`
	Position        Point           `json:"position"`
	Goal            *Point          `json:"goal,omitempty"`
	Path            Path            `json:"path"`
	Cursor          int             `json:"cursor"`
	RemainingSteps  int             `json:"remaining_steps"`
	Obstacles       []ObstacleState `json:"obstacles"`
	PendingCommands int             `json:"pending_commands"`
	Stats           SimStats        `json:"stats"`
	History         []TravelEvent   `json:"history"`
	LastError       string          `json:"last_error,omitempty"`

	// Computed helper view (not required for core logic)
	MapView []string `json:"map_view,omitempty"`
}
