package engine

import (
	"errors"
	"fmt"
	"sync"
)

// Options tunes a Simulation
type Options struct {
	ConfigName      string
	MaxGoalAttempts int
	MaxExpansions   int
	Messages        EventMessages
}

// EventMessages are the templates used for event messages. Empty entries
// fall back to built-in wording.
type EventMessages struct {
	Started            string `json:"started"`
	Replanned          string `json:"replanned"`
	DestinationReached string `json:"destination_reached"`
	ObstacleConsumed   string `json:"obstacle_consumed"`
	NoRoute            string `json:"no_route"`
}

// OptionsFromConfig derives simulation options from a map configuration
func OptionsFromConfig(config *MapConfig) Options {
	return Options{
		ConfigName:      config.Name,
		MaxGoalAttempts: config.MaxGoalAttempts,
		MaxExpansions:   config.MaxExpansions,
		Messages:        config.Messages,
	}
}

type commandKind int

const (
	commandPlace commandKind = iota
	commandClear
)

type command struct {
	kind     commandKind
	obstacle Obstacle
	cell     Point
}

// Simulation moves a traveller along a shortest path, one cell per tick,
// replanning when new obstacles cut the remaining route and choosing a new
// destination whenever the current one is reached.
//
// External input (obstacle placed or cleared) is queued and applied at the
// start of the next tick, so every search works on a consistent view of
// the grid.
type Simulation struct {
	mu      sync.Mutex
	grid    *Grid
	tracker *ObstacleTracker
	finder  *PathFinder
	opts    Options

	status   TravelStatus
	position Point
	goal     *Point
	path     Path
	cursor   int
	stats    SimStats
	history  []TravelEvent
	lastErr  error

	queueMu sync.Mutex
	pending []command
}

// NewSimulation creates a simulation over grid, tracking dynamic obstacles
// with tracker.
func NewSimulation(grid *Grid, tracker *ObstacleTracker, opts Options) *Simulation {
	if opts.MaxGoalAttempts <= 0 {
		opts.MaxGoalAttempts = DefaultMaxGoalAttempts
	}
	if opts.MaxExpansions <= 0 {
		opts.MaxExpansions = DefaultMaxExpansions
	}
	return &Simulation{
		grid:    grid,
		tracker: tracker,
		finder:  NewPathFinder(opts.MaxExpansions),
		opts:    opts,
		status:  StatusUninitialized,
	}
}

// NewSimulationFromConfig builds the grid, tracker and simulation a map
// configuration describes.
func NewSimulationFromConfig(config *MapConfig, seed uint64) (*Simulation, error) {
	if err := ValidateMapConfig(config); err != nil {
		return nil, err
	}
	grid, err := NewGridFromConfig(config, seed)
	if err != nil {
		return nil, err
	}
	return NewSimulation(grid, NewObstacleTracker(config.ObstaclePadding), OptionsFromConfig(config)), nil
}

// OnObstaclePlaced queues a new obstacle covering trace. It takes effect at
// the start of the next tick; cells that are houses or off the grid are
// dropped from the trace then.
func (s *Simulation) OnObstaclePlaced(trace []Point, duration int) (Obstacle, error) {
	o, err := NewObstacle(trace, duration)
	if err != nil {
		return Obstacle{}, err
	}
	s.enqueue(command{kind: commandPlace, obstacle: o})
	return o, nil
}

// OnObstacleCleared queues removal of the obstacle occupying cell
func (s *Simulation) OnObstacleCleared(cell Point) {
	s.enqueue(command{kind: commandClear, cell: cell})
}

func (s *Simulation) enqueue(c command) {
	s.queueMu.Lock()
	s.pending = append(s.pending, c)
	s.queueMu.Unlock()
}

// Tick advances the simulation by exactly one step
func (s *Simulation) Tick() TravelEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Ticks++
	s.lastErr = nil
	s.expireObstacles()
	s.drainCommands()

	ev := s.step()
	ev.Tick = s.stats.Ticks
	ev.Status = s.status
	ev.Position = s.position
	if ev.Err != nil {
		ev.Error = ev.Err.Error()
		s.lastErr = ev.Err
	}

	s.history = append(s.history, ev)
	if len(s.history) > MaxHistoryEntries {
		s.history = s.history[len(s.history)-MaxHistoryEntries:]
	}
	return ev
}

func (s *Simulation) step() TravelEvent {
	if s.status == StatusUninitialized {
		return s.start()
	}

	fresh := s.tracker.TakeNew()
	remaining := s.remaining()

	var underfoot []Obstacle
	collision := false
	for _, o := range fresh {
		if o.Contains(s.position) {
			underfoot = append(underfoot, o)
			continue
		}
		if fp, ok := s.tracker.Footprint(o.ID); ok && HasCollision(remaining, fp) {
			collision = true
		}
	}

	// The traveller already stands on these cells, so they never force a
	// replan; they are consumed whichever branch runs.
	for _, o := range underfoot {
		s.consume(o)
	}

	if s.status == StatusNoRoute {
		return s.chooseDestination(EventReplanned)
	}

	if collision {
		return s.replan()
	}

	if len(underfoot) > 0 {
		s.status = StatusFollowing
		return TravelEvent{
			Type:    EventObstacleConsumed,
			Message: s.format(s.opts.Messages.ObstacleConsumed, "Cleared obstacle at %s", s.position),
		}
	}

	if s.cursor >= len(s.path)-1 {
		s.status = StatusCompleted
		s.stats.DestinationsReached++
		return s.chooseDestination(EventDestinationReached)
	}

	s.cursor++
	s.position = s.path[s.cursor]
	s.stats.Steps++
	return TravelEvent{Type: EventAdvanced, Message: fmt.Sprintf("Moved to %s", s.position)}
}

// start places the traveller on a random street and picks a first destination
func (s *Simulation) start() TravelEvent {
	origin, err := s.grid.RandomEmptyCell()
	if err != nil {
		return TravelEvent{Type: EventNoRoute, Message: "No street cell to start from", Err: err}
	}
	s.position = origin
	// The first route is planned against every obstacle placed so far
	s.tracker.TakeNew()
	return s.chooseDestination(EventStarted)
}

// replan recomputes the route to the current goal from the traveller's
// current cell, never from the old path's start.
func (s *Simulation) replan() TravelEvent {
	s.status = StatusReplanning
	s.stats.Replans++

	if s.goal == nil {
		return s.noRoute(fmt.Errorf("replan without a destination: %w", ErrNoRoute))
	}
	// An obstacle sitting on the destination itself makes it unusable.
	if s.grid.Classify(*s.goal) == CellObstacle {
		return s.noRoute(fmt.Errorf("destination %s is obstructed: %w", *s.goal, ErrNoRoute))
	}

	path, err := s.finder.Search(s.position, *s.goal, s.grid.SearchView(s.position, *s.goal))
	if err != nil {
		return s.noRoute(fmt.Errorf("replan to %s: %w", *s.goal, err))
	}

	s.setPath(path)
	s.status = StatusFollowing
	goal := *s.goal
	return TravelEvent{
		Type:    EventReplanned,
		Goal:    &goal,
		Path:    path.Clone(),
		Message: s.format(s.opts.Messages.Replanned, "Obstacle ahead, new route with %d steps", path.Steps()),
	}
}

// chooseDestination samples houses until one is reachable from the current
// cell, giving up after MaxGoalAttempts tries.
func (s *Simulation) chooseDestination(kind EventType) TravelEvent {
	var lastErr error
	for attempt := 0; attempt < s.opts.MaxGoalAttempts; attempt++ {
		goal, err := s.grid.RandomHouseCell()
		if err != nil {
			return s.noRoute(err)
		}
		if goal == s.position {
			lastErr = fmt.Errorf("sampled the current cell %s", goal)
			continue
		}

		path, err := s.finder.Search(s.position, goal, s.grid.SearchView(s.position, goal))
		if err != nil {
			lastErr = fmt.Errorf("destination %s: %w", goal, err)
			continue
		}

		s.goal = &goal
		s.setPath(path)
		s.status = StatusFollowing

		ev := TravelEvent{Type: kind, Goal: &goal, Path: path.Clone()}
		switch kind {
		case EventStarted:
			ev.Message = s.format(s.opts.Messages.Started, "Traveller set off towards %s", goal)
		case EventDestinationReached:
			ev.Message = s.format(s.opts.Messages.DestinationReached, "Destination reached, heading to %s", goal)
		default:
			ev.Message = s.format(s.opts.Messages.Replanned, "New route with %d steps", path.Steps())
		}
		return ev
	}

	if lastErr == nil {
		return s.noRoute(ErrNoRoute)
	}
	return s.noRoute(fmt.Errorf("%w after %d attempts: %w", ErrNoRoute, s.opts.MaxGoalAttempts, lastErr))
}

func (s *Simulation) noRoute(err error) TravelEvent {
	s.status = StatusNoRoute
	s.path = nil
	s.cursor = 0
	s.stats.NoRouteTicks++
	return TravelEvent{
		Type:    EventNoRoute,
		Message: s.format(s.opts.Messages.NoRoute, "No route available", nil),
		Err:     err,
	}
}

// setPath replaces the current path wholesale; the traveller stays where
// it is and the cursor restarts at the path's first cell.
func (s *Simulation) setPath(path Path) {
	s.path = path
	s.cursor = 0
}

// remaining returns the not-yet-traversed part of the path
func (s *Simulation) remaining() Path {
	if s.cursor+1 >= len(s.path) {
		return nil
	}
	return s.path[s.cursor+1:]
}

func (s *Simulation) drainCommands() {
	s.queueMu.Lock()
	pending := s.pending
	s.pending = nil
	s.queueMu.Unlock()

	for _, c := range pending {
		switch c.kind {
		case commandPlace:
			s.place(c.obstacle)
		case commandClear:
			s.clear(c.cell)
		}
	}
}

// place flips the obstacle's street cells on the grid and starts tracking
// it. Trace cells that are houses or off the grid are dropped.
func (s *Simulation) place(o Obstacle) {
	trace := make([]Point, 0, len(o.Trace))
	for _, p := range o.Trace {
		switch s.grid.Classify(p) {
		case CellStreet:
			if _, err := s.grid.ToggleObstacle(p); err != nil {
				continue
			}
			trace = append(trace, p)
		case CellObstacle:
			trace = append(trace, p)
		}
	}
	if len(trace) == 0 {
		s.lastErr = fmt.Errorf("obstacle %s: %w: no placeable cells", o.ID, ErrInvalidObstacle)
		return
	}
	o.Trace = trace
	s.tracker.AddObstacle(o)
}

// clear removes the obstacle occupying cell, or reverts a lone obstacle
// cell that no tracked obstacle owns.
func (s *Simulation) clear(cell Point) {
	if o, ok := s.tracker.RemoveObstacle(cell); ok {
		s.release(o)
		return
	}
	if s.grid.Classify(cell) == CellObstacle {
		s.grid.ToggleObstacle(cell)
	}
}

func (s *Simulation) consume(o Obstacle) {
	if removed, ok := s.tracker.RemoveByID(o.ID); ok {
		s.release(removed)
		s.stats.ObstaclesConsumed++
	}
}

func (s *Simulation) expireObstacles() {
	for _, o := range s.tracker.Expire() {
		s.release(o)
		s.stats.ObstaclesExpired++
	}
}

// release turns an untracked obstacle's cells back into streets unless
// another active obstacle still covers them.
func (s *Simulation) release(o Obstacle) {
	for _, p := range o.Trace {
		if s.grid.Classify(p) == CellObstacle && !s.tracker.Covers(p, o.ID) {
			s.grid.ToggleObstacle(p)
		}
	}
}

func (s *Simulation) format(template, fallback string, arg any) string {
	if template == "" {
		template = fallback
	}
	if arg == nil {
		return template
	}
	return fmt.Sprintf(template, arg)
}

// Status returns the current state of the travel state machine
func (s *Simulation) Status() TravelStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CurrentPosition returns the traveller's cell
func (s *Simulation) CurrentPosition() Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// CurrentPath returns a copy of the path being followed
func (s *Simulation) CurrentPath() Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path.Clone()
}

// Cursor returns the index of the traveller's cell in the current path
func (s *Simulation) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Goal returns the current destination, if any
func (s *Simulation) Goal() (Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.goal == nil {
		return Point{}, false
	}
	return *s.goal, true
}

// Stats returns the lifetime counters
func (s *Simulation) Stats() SimStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// History returns the most recent tick events, oldest first
func (s *Simulation) History() []TravelEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TravelEvent, len(s.history))
	copy(out, s.history)
	return out
}

// Grid returns the simulation's grid. Callers must not mutate it while
// the simulation is ticking.
func (s *Simulation) Grid() *Grid {
	return s.grid
}

// PendingCommands returns how many queued inputs wait for the next tick
func (s *Simulation) PendingCommands() int {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	return len(s.pending)
}

// Reset clears every dynamic obstacle and queued input and returns the
// simulation to its uninitialized state. Stats and history are kept.
func (s *Simulation) Reset() {
	s.queueMu.Lock()
	s.pending = nil
	s.queueMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.tracker.Active() {
		s.tracker.RemoveByID(o.ID)
		s.release(o)
	}
	s.tracker.TakeNew()

	s.status = StatusUninitialized
	s.position = Point{}
	s.goal = nil
	s.path = nil
	s.cursor = 0
	s.lastErr = nil
}

// Snapshot returns a serialisable copy of the simulation state
func (s *Simulation) Snapshot() *SimState {
	pending := s.PendingCommands()

	s.mu.Lock()
	defer s.mu.Unlock()

	state := &SimState{
		ConfigName:      s.opts.ConfigName,
		Width:           s.grid.Width(),
		Height:          s.grid.Height(),
		Status:          s.status,
		Position:        s.position,
		Path:            s.path.Clone(),
		Cursor:          s.cursor,
		RemainingSteps:  len(s.remaining()),
		Obstacles:       s.tracker.States(),
		PendingCommands: pending,
		Stats:           s.stats,
		History:         make([]TravelEvent, len(s.history)),
		MapView:         s.renderLocked(),
	}
	copy(state.History, s.history)
	if s.goal != nil {
		goal := *s.goal
		state.Goal = &goal
	}
	if s.lastErr != nil {
		state.LastError = s.lastErr.Error()
	}
	if state.Path == nil {
		state.Path = Path{}
	}
	return state
}

// Restore loads a snapshot into a freshly built simulation over the same map
func (s *Simulation) Restore(state *SimState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Width != s.grid.Width() || state.Height != s.grid.Height() {
		return fmt.Errorf("state is for a %dx%d grid, simulation has %dx%d",
			state.Width, state.Height, s.grid.Width(), s.grid.Height())
	}
	if len(state.Path) > 0 && (state.Cursor < 0 || state.Cursor >= len(state.Path)) {
		return fmt.Errorf("cursor %d outside path of length %d", state.Cursor, len(state.Path))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, st := range state.Obstacles {
		for _, p := range st.Obstacle.Trace {
			if s.grid.Classify(p) == CellStreet {
				s.grid.ToggleObstacle(p)
			}
		}
		s.tracker.Restore(st)
	}

	s.status = state.Status
	s.position = state.Position
	s.path = state.Path.Clone()
	s.cursor = state.Cursor
	s.stats = state.Stats
	s.history = append([]TravelEvent(nil), state.History...)
	s.goal = nil
	if state.Goal != nil {
		goal := *state.Goal
		s.goal = &goal
	}
	if state.LastError != "" {
		s.lastErr = errors.New(state.LastError)
	}
	return nil
}

// renderLocked overlays the route on the grid: 'T' traveller, 'G' goal,
// '*' remaining path.
func (s *Simulation) renderLocked() []string {
	rows := s.grid.Render()
	if s.status == StatusUninitialized {
		return rows
	}

	buf := make([][]byte, len(rows))
	for i, r := range rows {
		buf[i] = []byte(r)
	}
	mark := func(p Point, c byte) {
		if s.grid.InBounds(p) {
			buf[p.Y][p.X] = c
		}
	}
	for _, p := range s.remaining() {
		mark(p, '*')
	}
	if s.goal != nil {
		mark(*s.goal, 'G')
	}
	mark(s.position, 'T')

	for i := range buf {
		rows[i] = string(buf[i])
	}
	return rows
}
