package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustObstacle(t *testing.T, duration int, trace ...Point) Obstacle {
	t.Helper()
	o, err := NewObstacle(trace, duration)
	require.NoError(t, err)
	return o
}

func TestNewObstacle(t *testing.T) {
	trace := []Point{{1, 1}}
	o := mustObstacle(t, 3, trace...)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, 3, o.Duration)
	trace[0] = Point{9, 9}
	assert.True(t, o.Contains(Point{1, 1}), "trace is copied")

	other := mustObstacle(t, 0, Point{1, 1})
	assert.NotEqual(t, o.ID, other.ID)

	_, err := NewObstacle(nil, 0)
	assert.ErrorIs(t, err, ErrInvalidObstacle)
	_, err = NewObstacle([]Point{{0, 0}}, -1)
	assert.ErrorIs(t, err, ErrInvalidObstacle)
}

func TestNewLineObstacle(t *testing.T) {
	h, err := NewLineObstacle(Point{1, 2}, 3, Horizontal, 0)
	require.NoError(t, err)
	assert.Equal(t, []Point{{1, 2}, {2, 2}, {3, 2}}, h.Trace)

	v, err := NewLineObstacle(Point{1, 2}, 2, Vertical, 0)
	require.NoError(t, err)
	assert.Equal(t, []Point{{1, 2}, {1, 3}}, v.Trace)

	_, err = NewLineObstacle(Point{}, 0, Horizontal, 0)
	assert.ErrorIs(t, err, ErrInvalidObstacle)
	_, err = NewLineObstacle(Point{}, 2, Orientation("diagonal"), 0)
	assert.ErrorIs(t, err, ErrInvalidObstacle)
}

func TestComputeFootprint(t *testing.T) {
	o := mustObstacle(t, 0, Point{5, 5})

	assert.Equal(t, 1, ComputeFootprint(o, 0).Len())

	fp := ComputeFootprint(o, 1)
	assert.Equal(t, 9, fp.Len())
	assert.True(t, fp.Has(Point{4, 4}))
	assert.True(t, fp.Has(Point{6, 6}))
	assert.False(t, fp.Has(Point{7, 5}))

	line, err := NewLineObstacle(Point{0, 0}, 3, Horizontal, 0)
	require.NoError(t, err)
	assert.Equal(t, 5*3, ComputeFootprint(line, 1).Len(), "overlapping squares are merged")
}

func TestComputeFootprint_Symmetric(t *testing.T) {
	const padding = 2
	origin := Point{0, 0}
	fp := ComputeFootprint(mustObstacle(t, 0, origin), padding)

	for _, q := range fp.Points() {
		back := ComputeFootprint(mustObstacle(t, 0, q), padding)
		assert.True(t, back.Has(origin), "footprint of %s should contain %s", q, origin)
	}
}

func TestHasCollision(t *testing.T) {
	fp := ComputeFootprint(mustObstacle(t, 0, Point{3, 3}), 1)

	assert.True(t, HasCollision(Path{{0, 2}, {1, 2}, {2, 2}}, fp))
	assert.False(t, HasCollision(Path{{0, 0}, {1, 0}, {5, 0}}, fp))
	assert.False(t, HasCollision(nil, fp))
}

func TestObstacleTracker_TakeNew(t *testing.T) {
	tracker := NewObstacleTracker(1)
	a := mustObstacle(t, 0, Point{1, 1})
	b := mustObstacle(t, 0, Point{4, 4})

	assert.False(t, tracker.HasNew())
	tracker.AddObstacle(a)
	tracker.AddObstacle(b)
	assert.True(t, tracker.HasNew())

	_, ok := tracker.RemoveObstacle(Point{4, 4})
	require.True(t, ok)

	fresh := tracker.TakeNew()
	require.Len(t, fresh, 1, "removed obstacles are skipped")
	assert.Equal(t, a.ID, fresh[0].ID)
	assert.False(t, tracker.HasNew())
	assert.Empty(t, tracker.TakeNew())

	fp, ok := tracker.Footprint(a.ID)
	require.True(t, ok)
	assert.Equal(t, 9, fp.Len())
}

func TestObstacleTracker_Expire(t *testing.T) {
	tracker := NewObstacleTracker(0)
	short := mustObstacle(t, 1, Point{0, 0})
	long := mustObstacle(t, 2, Point{1, 0})
	permanent := mustObstacle(t, 0, Point{2, 0})
	tracker.AddObstacle(short)
	tracker.AddObstacle(long)
	tracker.AddObstacle(permanent)

	expired := tracker.Expire()
	require.Len(t, expired, 1)
	assert.Equal(t, short.ID, expired[0].ID)

	expired = tracker.Expire()
	require.Len(t, expired, 1)
	assert.Equal(t, long.ID, expired[0].ID)

	for i := 0; i < 10; i++ {
		assert.Empty(t, tracker.Expire())
	}
	assert.Equal(t, 1, tracker.Len())
}

func TestObstacleTracker_Covers(t *testing.T) {
	tracker := NewObstacleTracker(0)
	a := mustObstacle(t, 0, Point{1, 1}, Point{2, 1})
	b := mustObstacle(t, 0, Point{2, 1}, Point{3, 1})
	tracker.AddObstacle(a)
	tracker.AddObstacle(b)

	assert.True(t, tracker.Covers(Point{2, 1}, a.ID))
	assert.False(t, tracker.Covers(Point{1, 1}, a.ID))

	removed, ok := tracker.RemoveByID(b.ID)
	require.True(t, ok)
	assert.Equal(t, b.ID, removed.ID)
	assert.False(t, tracker.Covers(Point{2, 1}, a.ID))

	_, ok = tracker.RemoveByID(b.ID)
	assert.False(t, ok)
}

func TestObstacleTracker_RestoreIsNotNew(t *testing.T) {
	tracker := NewObstacleTracker(1)
	o := mustObstacle(t, 5, Point{2, 2})
	tracker.Restore(ObstacleState{Obstacle: o, Remaining: 2})

	assert.False(t, tracker.HasNew())
	states := tracker.States()
	require.Len(t, states, 1)
	assert.Equal(t, 2, states[0].Remaining)

	tracker.Expire()
	assert.Len(t, tracker.Expire(), 1)
}
