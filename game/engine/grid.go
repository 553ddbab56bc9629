package engine

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// Blocker reports whether a search may enter a cell
type Blocker interface {
	IsBlocked(p Point) bool
}

// BlockedSet is a set of cells a search may not enter
type BlockedSet map[uint64]struct{}

// NewBlockedSet creates a set holding the given points
func NewBlockedSet(points ...Point) BlockedSet {
	s := make(BlockedSet, len(points))
	for _, p := range points {
		s.Add(p)
	}
	return s
}

func (s BlockedSet) Add(p Point)      { s[pointKey(p)] = struct{}{} }
func (s BlockedSet) Remove(p Point)   { delete(s, pointKey(p)) }
func (s BlockedSet) Len() int         { return len(s) }
func (s BlockedSet) Has(p Point) bool { _, ok := s[pointKey(p)]; return ok }

// IsBlocked implements Blocker
func (s BlockedSet) IsBlocked(p Point) bool { return s.Has(p) }

// Clone returns an independent copy of the set
func (s BlockedSet) Clone() BlockedSet {
	out := make(BlockedSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Points returns the members ordered by row, then column
func (s BlockedSet) Points() []Point {
	points := make([]Point, 0, len(s))
	for k := range s {
		points = append(points, keyPoint(k))
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Y != points[j].Y {
			return points[i].Y < points[j].Y
		}
		return points[i].X < points[j].X
	})
	return points
}

// boundedView is a blocked-set snapshot that also treats every cell
// outside the grid as blocked.
type boundedView struct {
	set           BlockedSet
	width, height int
}

func (v boundedView) IsBlocked(p Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= v.width || p.Y >= v.height {
		return true
	}
	return v.set.Has(p)
}

// Grid classifies every cell of a fixed-size map as street, house or obstacle
type Grid struct {
	width   int
	height  int
	cells   []CellKind
	blocked BlockedSet
	rng     *rand.Rand
}

// NewGrid creates a grid of the given size with the listed house cells.
// Every other cell starts as a street.
func NewGrid(width, height int, houses []Point, seed uint64) (*Grid, error) {
	if width < MinGridSize || height < MinGridSize || width > MaxGridSize || height > MaxGridSize {
		return nil, fmt.Errorf("grid size must be between %d and %d, got %dx%d", MinGridSize, MaxGridSize, width, height)
	}

	g := &Grid{
		width:   width,
		height:  height,
		cells:   make([]CellKind, width*height),
		blocked: make(BlockedSet, len(houses)),
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for i := range g.cells {
		g.cells[i] = CellStreet
	}

	for _, h := range houses {
		if !g.InBounds(h) {
			return nil, fmt.Errorf("house %s: %w", h, ErrOutOfBounds)
		}
		g.cells[g.index(h)] = CellHouse
		g.blocked.Add(h)
	}

	return g, nil
}

// Width returns the number of columns
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows
func (g *Grid) Height() int { return g.height }

// Bounds returns the width and height together
func (g *Grid) Bounds() (width, height int) { return g.width, g.height }

// InBounds reports whether p lies on the grid
func (g *Grid) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

func (g *Grid) index(p Point) int {
	return p.Y*g.width + p.X
}

// Classify returns the kind of the cell at p. Cells outside the grid are
// reported as houses so that nothing treats them as traversable.
func (g *Grid) Classify(p Point) CellKind {
	if !g.InBounds(p) {
		return CellHouse
	}
	return g.cells[g.index(p)]
}

// BlockedSet returns the live blocked-cell set. Callers must not mutate it.
func (g *Grid) BlockedSet() BlockedSet {
	return g.blocked
}

// SearchView returns a snapshot of the blocked set for one search. The
// agent's occupied start cell and the designated goal are exempt, so a
// house can be a destination and a traveller standing on one can leave it.
func (g *Grid) SearchView(start, goal Point) Blocker {
	snapshot := g.blocked.Clone()
	snapshot.Remove(start)
	snapshot.Remove(goal)
	return boundedView{set: snapshot, width: g.width, height: g.height}
}

// RandomEmptyCell picks a street cell uniformly at random
func (g *Grid) RandomEmptyCell() (Point, error) {
	return g.randomOf(CellStreet)
}

// RandomHouseCell picks a house cell uniformly at random
func (g *Grid) RandomHouseCell() (Point, error) {
	return g.randomOf(CellHouse)
}

func (g *Grid) randomOf(kind CellKind) (Point, error) {
	candidates := g.cellsOf(kind)
	if len(candidates) == 0 {
		return Point{}, fmt.Errorf("no %s cells: %w", kind, ErrDegenerateMap)
	}
	return candidates[g.rng.IntN(len(candidates))], nil
}

func (g *Grid) cellsOf(kind CellKind) []Point {
	var out []Point
	for i, c := range g.cells {
		if c == kind {
			out = append(out, Point{X: i % g.width, Y: i / g.width})
		}
	}
	return out
}

// ToggleObstacle flips a street cell to an obstacle or an obstacle back to
// a street and returns the new kind. Houses cannot be toggled.
func (g *Grid) ToggleObstacle(p Point) (CellKind, error) {
	if !g.InBounds(p) {
		return "", fmt.Errorf("toggle %s: %w", p, ErrOutOfBounds)
	}

	i := g.index(p)
	switch g.cells[i] {
	case CellStreet:
		g.cells[i] = CellObstacle
		g.blocked.Add(p)
	case CellObstacle:
		g.cells[i] = CellStreet
		g.blocked.Remove(p)
	case CellHouse:
		return CellHouse, fmt.Errorf("toggle %s: %w", p, ErrHouseNotToggleable)
	}
	return g.cells[i], nil
}

// Counts returns how many cells of each kind the grid holds
func (g *Grid) Counts() map[CellKind]int {
	counts := map[CellKind]int{CellStreet: 0, CellHouse: 0, CellObstacle: 0}
	for _, c := range g.cells {
		counts[c]++
	}
	return counts
}

// Render draws the grid as rows of characters: '.' street, 'H' house,
// '#' obstacle.
func (g *Grid) Render() []string {
	rows := make([]string, g.height)
	line := make([]byte, g.width)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			line[x] = cellChar(g.cells[y*g.width+x])
		}
		rows[y] = string(line)
	}
	return rows
}

func cellChar(kind CellKind) byte {
	switch kind {
	case CellHouse:
		return 'H'
	case CellObstacle:
		return '#'
	default:
		return '.'
	}
}
