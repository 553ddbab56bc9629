package engine

import (
	"container/heap"
	"fmt"
)

// searchNode is an arena entry for one search. parent is the arena index
// of the predecessor, -1 for the start node.
type searchNode struct {
	pos       Point
	g, h, f   int
	parent    int
	seq       int
	heapIndex int
}

// openList is a binary heap of arena indices ordered by f, then by
// insertion order, so equal-f nodes leave in the order they were found.
type openList struct {
	nodes []searchNode
	items []int
}

func (o *openList) Len() int { return len(o.items) }

func (o *openList) Less(i, j int) bool {
	a, b := &o.nodes[o.items[i]], &o.nodes[o.items[j]]
	if a.f != b.f {
		return a.f < b.f
	}
	return a.seq < b.seq
}

func (o *openList) Swap(i, j int) {
	o.items[i], o.items[j] = o.items[j], o.items[i]
	o.nodes[o.items[i]].heapIndex = i
	o.nodes[o.items[j]].heapIndex = j
}

func (o *openList) Push(x any) {
	idx := x.(int)
	o.nodes[idx].heapIndex = len(o.items)
	o.items = append(o.items, idx)
}

func (o *openList) Pop() any {
	old := o.items
	n := len(old)
	idx := old[n-1]
	o.items = old[:n-1]
	o.nodes[idx].heapIndex = -1
	return idx
}

// PathFinder runs A* searches over 4-connected, unit-cost grids. It keeps
// its node arena between calls, so a PathFinder must not be shared by
// concurrent searches.
type PathFinder struct {
	maxExpansions int

	open   openList
	index  map[uint64]int
	closed map[uint64]struct{}
}

// NewPathFinder creates a path finder that gives up after maxExpansions
// node expansions. Non-positive values select DefaultMaxExpansions.
func NewPathFinder(maxExpansions int) *PathFinder {
	if maxExpansions <= 0 {
		maxExpansions = DefaultMaxExpansions
	}
	return &PathFinder{
		maxExpansions: maxExpansions,
		index:         make(map[uint64]int),
		closed:        make(map[uint64]struct{}),
	}
}

// FindPath returns a shortest path from start to goal using a fresh
// PathFinder with default limits. The path is empty when no route exists.
func FindPath(start, goal Point, blocked Blocker) Path {
	return NewPathFinder(DefaultMaxExpansions).FindPath(start, goal, blocked)
}

// FindPath returns a shortest path from start to goal, or an empty path
func (pf *PathFinder) FindPath(start, goal Point, blocked Blocker) Path {
	path, err := pf.Search(start, goal, blocked)
	if err != nil {
		return Path{}
	}
	return path
}

// Search is FindPath with a reason for failure: ErrInvalidEndpoint when
// either endpoint is blocked, ErrNoPathFound when the open set runs dry and
// ErrSearchLimit when the expansion budget is spent.
func (pf *PathFinder) Search(start, goal Point, blocked Blocker) (Path, error) {
	if blocked == nil {
		blocked = BlockedSet{}
	}
	if blocked.IsBlocked(start) || blocked.IsBlocked(goal) {
		return Path{}, ErrInvalidEndpoint
	}
	if start == goal {
		return Path{start}, nil
	}

	pf.reset()
	pf.push(start, 0, ManhattanDistance(start, goal), -1)

	expansions := 0
	for pf.open.Len() > 0 {
		current := heap.Pop(&pf.open).(int)
		node := pf.open.nodes[current]

		if node.pos == goal {
			return pf.reconstruct(current), nil
		}

		key := pointKey(node.pos)
		delete(pf.index, key)
		pf.closed[key] = struct{}{}

		expansions++
		if expansions > pf.maxExpansions {
			return Path{}, fmt.Errorf("after %d expansions: %w", pf.maxExpansions, ErrSearchLimit)
		}

		for _, next := range node.pos.Neighbors() {
			nextKey := pointKey(next)
			if _, done := pf.closed[nextKey]; done {
				continue
			}
			if blocked.IsBlocked(next) {
				continue
			}

			g := node.g + 1
			if existing, ok := pf.index[nextKey]; ok {
				n := &pf.open.nodes[existing]
				if g < n.g {
					n.g = g
					n.f = g + n.h
					n.parent = current
					heap.Fix(&pf.open, n.heapIndex)
				}
				continue
			}
			pf.push(next, g, ManhattanDistance(next, goal), current)
		}
	}

	return Path{}, ErrNoPathFound
}

func (pf *PathFinder) reset() {
	pf.open.nodes = pf.open.nodes[:0]
	pf.open.items = pf.open.items[:0]
	clear(pf.index)
	clear(pf.closed)
}

func (pf *PathFinder) push(pos Point, g, h, parent int) {
	idx := len(pf.open.nodes)
	pf.open.nodes = append(pf.open.nodes, searchNode{
		pos:    pos,
		g:      g,
		h:      h,
		f:      g + h,
		parent: parent,
		seq:    idx,
	})
	pf.index[pointKey(pos)] = idx
	heap.Push(&pf.open, idx)
}

// reconstruct walks parent indices from the goal back to the start
func (pf *PathFinder) reconstruct(goal int) Path {
	var path Path
	for i := goal; i >= 0; i = pf.open.nodes[i].parent {
		path = append(path, pf.open.nodes[i].pos)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}
