package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrid_InvalidSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
	}{
		{"too narrow", 1, 5},
		{"too short", 5, 1},
		{"too wide", MaxGridSize + 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.width, tt.height, nil, 1)
			assert.Error(t, err)
		})
	}
}

func TestNewGrid_HouseOutOfBounds(t *testing.T) {
	_, err := NewGrid(3, 3, []Point{{3, 0}}, 1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestGrid_Classify(t *testing.T) {
	grid, err := NewGrid(3, 3, []Point{{1, 1}}, 1)
	require.NoError(t, err)

	assert.Equal(t, CellHouse, grid.Classify(Point{1, 1}))
	assert.Equal(t, CellStreet, grid.Classify(Point{0, 0}))
	assert.Equal(t, CellHouse, grid.Classify(Point{-1, 0}), "off-grid cells are never traversable")
	assert.Equal(t, 1, grid.BlockedSet().Len())
}

func TestGrid_ToggleObstacle(t *testing.T) {
	grid, err := NewGrid(3, 3, []Point{{1, 1}}, 1)
	require.NoError(t, err)

	kind, err := grid.ToggleObstacle(Point{0, 0})
	require.NoError(t, err)
	assert.Equal(t, CellObstacle, kind)
	assert.True(t, grid.BlockedSet().Has(Point{0, 0}))

	kind, err = grid.ToggleObstacle(Point{0, 0})
	require.NoError(t, err)
	assert.Equal(t, CellStreet, kind)
	assert.False(t, grid.BlockedSet().Has(Point{0, 0}))

	_, err = grid.ToggleObstacle(Point{1, 1})
	assert.ErrorIs(t, err, ErrHouseNotToggleable)
	assert.Equal(t, CellHouse, grid.Classify(Point{1, 1}))

	_, err = grid.ToggleObstacle(Point{5, 5})
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestGrid_RandomCells(t *testing.T) {
	houses := []Point{{0, 0}, {1, 0}, {2, 0}}
	grid, err := NewGrid(3, 3, houses, 99)
	require.NoError(t, err)
	_, err = grid.ToggleObstacle(Point{1, 1})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		street, err := grid.RandomEmptyCell()
		require.NoError(t, err)
		assert.Equal(t, CellStreet, grid.Classify(street))

		house, err := grid.RandomHouseCell()
		require.NoError(t, err)
		assert.Equal(t, CellHouse, grid.Classify(house))
	}
}

func TestGrid_RandomCellsDegenerate(t *testing.T) {
	noHouses, err := NewGrid(2, 2, nil, 1)
	require.NoError(t, err)
	_, err = noHouses.RandomHouseCell()
	assert.ErrorIs(t, err, ErrDegenerateMap)

	allHouses, err := NewGrid(2, 2, []Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, 1)
	require.NoError(t, err)
	_, err = allHouses.RandomEmptyCell()
	assert.ErrorIs(t, err, ErrDegenerateMap)
}

func TestGrid_SameSeedSameSamples(t *testing.T) {
	a, err := NewGrid(6, 6, []Point{{0, 0}, {5, 5}, {3, 2}}, 1234)
	require.NoError(t, err)
	b, err := NewGrid(6, 6, []Point{{0, 0}, {5, 5}, {3, 2}}, 1234)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		pa, _ := a.RandomEmptyCell()
		pb, _ := b.RandomEmptyCell()
		assert.Equal(t, pa, pb)
	}
}

func TestGrid_SearchView(t *testing.T) {
	grid, err := NewGrid(4, 4, []Point{{0, 0}, {3, 3}, {1, 1}}, 1)
	require.NoError(t, err)

	view := grid.SearchView(Point{0, 0}, Point{3, 3})
	assert.False(t, view.IsBlocked(Point{0, 0}), "start is exempt")
	assert.False(t, view.IsBlocked(Point{3, 3}), "goal is exempt")
	assert.True(t, view.IsBlocked(Point{1, 1}))
	assert.True(t, view.IsBlocked(Point{4, 0}), "outside the grid is blocked")

	// The view is a snapshot
	_, err = grid.ToggleObstacle(Point{2, 2})
	require.NoError(t, err)
	assert.False(t, view.IsBlocked(Point{2, 2}))
	assert.True(t, grid.BlockedSet().Has(Point{0, 0}), "exemption does not touch the live set")
}

func TestGrid_CountsAndRender(t *testing.T) {
	grid, err := NewGrid(3, 2, []Point{{0, 0}}, 1)
	require.NoError(t, err)
	_, err = grid.ToggleObstacle(Point{2, 1})
	require.NoError(t, err)

	counts := grid.Counts()
	assert.Equal(t, 1, counts[CellHouse])
	assert.Equal(t, 1, counts[CellObstacle])
	assert.Equal(t, 4, counts[CellStreet])

	assert.Equal(t, []string{"H..", "..#"}, grid.Render())

	w, h := grid.Bounds()
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
}

func TestBlockedSet_Points(t *testing.T) {
	set := NewBlockedSet(Point{2, 1}, Point{0, 1}, Point{5, 0}, Point{-3, 4})
	assert.Equal(t, []Point{{5, 0}, {0, 1}, {2, 1}, {-3, 4}}, set.Points())

	clone := set.Clone()
	clone.Remove(Point{5, 0})
	assert.Equal(t, 4, set.Len())
	assert.Equal(t, 3, clone.Len())
}

func TestPointKeyRoundTrip(t *testing.T) {
	for _, p := range []Point{{0, 0}, {255, 3}, {-1, -1}, {-70000, 12}} {
		assert.Equal(t, p, keyPoint(pointKey(p)))
	}
}
