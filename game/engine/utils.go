package engine

// pointKey packs a point into a single integer used for set membership.
// Coordinates are truncated to 32 bits each, which covers any grid this
// package accepts as well as the unbounded search case.
func pointKey(p Point) uint64 {
	return uint64(uint32(p.X))<<32 | uint64(uint32(p.Y))
}

// keyPoint is the inverse of pointKey
func keyPoint(k uint64) Point {
	return Point{X: int(int32(uint32(k >> 32))), Y: int(int32(uint32(k)))}
}

// ManhattanDistance calculates the Manhattan distance between two points
func ManhattanDistance(from, to Point) int {
	return abs(from.X-to.X) + abs(from.Y-to.Y)
}

// IsAdjacent reports whether a and b are exactly one orthogonal step apart
func IsAdjacent(a, b Point) bool {
	return ManhattanDistance(a, b) == 1
}

// ValidatePath checks the structural path invariants against the blocked
// set used for the search: consecutive points are 4-adjacent and no
// interior point is blocked.
func ValidatePath(path Path, blocked Blocker) bool {
	for i := 1; i < len(path); i++ {
		if !IsAdjacent(path[i-1], path[i]) {
			return false
		}
	}
	for i := 1; i < len(path)-1; i++ {
		if blocked != nil && blocked.IsBlocked(path[i]) {
			return false
		}
	}
	return true
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
