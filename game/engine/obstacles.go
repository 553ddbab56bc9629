package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// Footprint is the padded collision region of an obstacle
type Footprint = BlockedSet

// NewObstacle creates an obstacle with a fresh ID
func NewObstacle(trace []Point, duration int) (Obstacle, error) {
	if len(trace) == 0 {
		return Obstacle{}, fmt.Errorf("%w: empty trace", ErrInvalidObstacle)
	}
	if duration < 0 {
		return Obstacle{}, fmt.Errorf("%w: negative duration %d", ErrInvalidObstacle, duration)
	}
	t := make([]Point, len(trace))
	copy(t, trace)
	return Obstacle{ID: uuid.NewString(), Trace: t, Duration: duration}, nil
}

// NewLineObstacle creates a straight obstacle of length cells starting at
// origin and extending right (horizontal) or down (vertical).
func NewLineObstacle(origin Point, length int, orientation Orientation, duration int) (Obstacle, error) {
	if length < 1 {
		return Obstacle{}, fmt.Errorf("%w: length must be positive, got %d", ErrInvalidObstacle, length)
	}

	step := Point{X: 1}
	switch orientation {
	case Horizontal, "":
	case Vertical:
		step = Point{Y: 1}
	default:
		return Obstacle{}, fmt.Errorf("%w: unknown orientation %q", ErrInvalidObstacle, orientation)
	}

	trace := make([]Point, 0, length)
	p := origin
	for i := 0; i < length; i++ {
		trace = append(trace, p)
		p = p.Add(step)
	}
	return NewObstacle(trace, duration)
}

// ComputeFootprint inflates every trace point by padding cells in each
// direction (a square of side 2*padding+1 around each point).
func ComputeFootprint(o Obstacle, padding int) Footprint {
	fp := make(Footprint, len(o.Trace)*(2*padding+1)*(2*padding+1))
	for _, p := range o.Trace {
		for dx := -padding; dx <= padding; dx++ {
			for dy := -padding; dy <= padding; dy++ {
				fp.Add(Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return fp
}

// HasCollision reports whether any point of the not-yet-traversed path
// suffix lies inside the footprint.
func HasCollision(remaining Path, fp Footprint) bool {
	for _, p := range remaining {
		if fp.Has(p) {
			return true
		}
	}
	return false
}

type trackedObstacle struct {
	obstacle  Obstacle
	footprint Footprint
	remaining int
}

// ObstacleTracker records active obstacles together with their padded
// footprints and remembers which ones arrived since the last check.
type ObstacleTracker struct {
	padding   int
	obstacles []*trackedObstacle
	fresh     []*trackedObstacle
}

// NewObstacleTracker creates a tracker that pads footprints by padding cells
func NewObstacleTracker(padding int) *ObstacleTracker {
	if padding < 0 {
		padding = 0
	}
	return &ObstacleTracker{padding: padding}
}

// Padding returns the footprint radius
func (t *ObstacleTracker) Padding() int { return t.padding }

// AddObstacle registers an obstacle and marks it as new
func (t *ObstacleTracker) AddObstacle(o Obstacle) {
	t.add(o, o.Duration)
}

func (t *ObstacleTracker) add(o Obstacle, remaining int) {
	tracked := &trackedObstacle{
		obstacle:  o,
		footprint: ComputeFootprint(o, t.padding),
		remaining: remaining,
	}
	t.obstacles = append(t.obstacles, tracked)
	t.fresh = append(t.fresh, tracked)
}

// Restore re-registers a persisted obstacle without marking it as new
func (t *ObstacleTracker) Restore(state ObstacleState) {
	t.obstacles = append(t.obstacles, &trackedObstacle{
		obstacle:  state.Obstacle,
		footprint: ComputeFootprint(state.Obstacle, t.padding),
		remaining: state.Remaining,
	})
}

// HasNew reports whether obstacles were added since the last TakeNew
func (t *ObstacleTracker) HasNew() bool {
	return len(t.fresh) > 0
}

// TakeNew returns the obstacles added since the last call and clears the
// new-obstacle flag. Obstacles removed in the meantime are skipped.
func (t *ObstacleTracker) TakeNew() []Obstacle {
	var out []Obstacle
	for _, f := range t.fresh {
		if t.indexOf(f.obstacle.ID) >= 0 {
			out = append(out, f.obstacle)
		}
	}
	t.fresh = nil
	return out
}

// Footprint returns the padded footprint of the obstacle with the given ID
func (t *ObstacleTracker) Footprint(id string) (Footprint, bool) {
	if i := t.indexOf(id); i >= 0 {
		return t.obstacles[i].footprint, true
	}
	return nil, false
}

// RemoveObstacle clears the obstacle whose trace occupies p
func (t *ObstacleTracker) RemoveObstacle(p Point) (Obstacle, bool) {
	for i, tracked := range t.obstacles {
		if tracked.obstacle.Contains(p) {
			t.obstacles = append(t.obstacles[:i], t.obstacles[i+1:]...)
			return tracked.obstacle, true
		}
	}
	return Obstacle{}, false
}

// RemoveByID clears the obstacle with the given ID
func (t *ObstacleTracker) RemoveByID(id string) (Obstacle, bool) {
	i := t.indexOf(id)
	if i < 0 {
		return Obstacle{}, false
	}
	o := t.obstacles[i].obstacle
	t.obstacles = append(t.obstacles[:i], t.obstacles[i+1:]...)
	return o, true
}

// Expire counts one tick off every obstacle with a finite duration and
// removes those that ran out.
func (t *ObstacleTracker) Expire() []Obstacle {
	var expired []Obstacle
	kept := t.obstacles[:0]
	for _, tracked := range t.obstacles {
		if tracked.obstacle.Duration > 0 {
			tracked.remaining--
			if tracked.remaining <= 0 {
				expired = append(expired, tracked.obstacle)
				continue
			}
		}
		kept = append(kept, tracked)
	}
	for i := len(kept); i < len(t.obstacles); i++ {
		t.obstacles[i] = nil
	}
	t.obstacles = kept
	return expired
}

// Covers reports whether any active obstacle other than exclude has p in its trace
func (t *ObstacleTracker) Covers(p Point, exclude string) bool {
	for _, tracked := range t.obstacles {
		if tracked.obstacle.ID != exclude && tracked.obstacle.Contains(p) {
			return true
		}
	}
	return false
}

// Active returns the tracked obstacles in insertion order
func (t *ObstacleTracker) Active() []Obstacle {
	out := make([]Obstacle, 0, len(t.obstacles))
	for _, tracked := range t.obstacles {
		out = append(out, tracked.obstacle)
	}
	return out
}

// States returns the tracked obstacles with their remaining lifetimes
func (t *ObstacleTracker) States() []ObstacleState {
	out := make([]ObstacleState, 0, len(t.obstacles))
	for _, tracked := range t.obstacles {
		out = append(out, ObstacleState{Obstacle: tracked.obstacle, Remaining: tracked.remaining})
	}
	return out
}

// Len returns the number of active obstacles
func (t *ObstacleTracker) Len() int { return len(t.obstacles) }

func (t *ObstacleTracker) indexOf(id string) int {
	for i, tracked := range t.obstacles {
		if tracked.obstacle.ID == id {
			return i
		}
	}
	return -1
}
