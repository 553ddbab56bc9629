package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/roadtraveller/game/engine"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// simulationServiceImpl implements the SimulationService interface
type simulationServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewSimulationService creates a new simulation service instance
func NewSimulationService(sessions SessionManager, configs ConfigManager) SimulationService {
	return &simulationServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a session, falling back to a
// display-name lookup for sessions created without one
func (s *simulationServiceImpl) getConfigID(sess *Session) string {
	if sess.ConfigID != "" {
		return sess.ConfigID
	}
	if available, err := s.configs.ListConfigs(); err == nil {
		for _, cfg := range available {
			if cfg.Name == sess.Config.Name {
				return cfg.ConfigID
			}
		}
	}
	if sess.Config.Name == "" {
		return "default"
	}
	return sess.Config.Name
}

func (s *simulationServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess),
		Seed:           sess.Seed,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          sess.Simulation.Snapshot(),
		MapConfig:      sess.Config,
	}
}

// CreateSession creates a new simulation session on the named map, or on
// the default map when configName is empty
func (s *simulationServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.MapConfig
	configID := strings.TrimSuffix(configName, ".json")
	if configID != "" {
		var err error
		config, err = s.configs.LoadConfig(configID)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				available, listErr := s.configs.ListConfigs()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, cfg := range available {
						ids = append(ids, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v", configName, ids)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations", configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.configIDForDefault(config)
	}

	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return s.sessionInfo(sess), nil
}

func (s *simulationServiceImpl) configIDForDefault(config *engine.MapConfig) string {
	if available, err := s.configs.ListConfigs(); err == nil {
		for _, cfg := range available {
			if cfg.Name == config.Name {
				return cfg.ConfigID
			}
		}
	}
	return config.Name
}

// GetSession retrieves session information
func (s *simulationServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions, oldest first
func (s *simulationServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *simulationServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Tick advances a session by steps ticks, capped at engine.MaxBulkTicks.
// It stops early when ctx is cancelled.
func (s *simulationServiceImpl) Tick(ctx context.Context, sessionID string, steps int) (*TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	result := runTicks(ctx, sess, steps)

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: failed to persist session %s after tick: %v", sessionID, err)
	}

	return result, nil
}

// TickAll advances every active session by one tick
func (s *simulationServiceImpl) TickAll(ctx context.Context) ([]*TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	results := make([]*TickResult, 0, len(sessions))
	for _, sess := range sessions {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, runTicks(ctx, sess, 1))
		if err := s.sessions.Save(sess.ID); err != nil {
			log.Printf("Warning: failed to persist session %s after auto tick: %v", sess.ID, err)
		}
	}
	return results, nil
}

func runTicks(ctx context.Context, sess *Session, steps int) *TickResult {
	requested := steps
	if steps < 1 {
		steps = 1
	}
	result := &TickResult{
		SessionID:      sess.ID,
		RequestedTicks: requested,
		StartPos:       sess.Simulation.CurrentPosition(),
		Events:         make([]engine.TravelEvent, 0, min(steps, engine.MaxBulkTicks)),
	}
	if steps > engine.MaxBulkTicks {
		steps = engine.MaxBulkTicks
		result.Truncated = true
		result.Limit = engine.MaxBulkTicks
	}

	for i := 0; i < steps; i++ {
		if ctx.Err() != nil {
			result.Message = fmt.Sprintf("Stopped after %d of %d ticks: %v", i, steps, ctx.Err())
			break
		}

		ev := sess.Simulation.Tick()
		result.TicksExecuted++
		result.Events = append(result.Events, ev)

		switch ev.Type {
		case engine.EventAdvanced:
			result.Steps++
		case engine.EventReplanned:
			result.Replans++
		case engine.EventDestinationReached:
			result.Arrivals++
		}
		result.Message = ev.Message
	}

	result.EndPos = sess.Simulation.CurrentPosition()
	result.State = sess.Simulation.Snapshot()
	return result
}

// PlaceObstacle queues an obstacle for the session's next tick
func (s *simulationServiceImpl) PlaceObstacle(ctx context.Context, sessionID string, req ObstacleRequest) (*ObstacleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	trace := req.Cells
	if len(trace) == 0 {
		length := req.Length
		if length == 0 {
			length = 1
		}
		line, err := engine.NewLineObstacle(engine.Point{X: req.X, Y: req.Y}, length, req.Orientation, req.Duration)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		trace = line.Trace
	}

	grid := sess.Simulation.Grid()
	for _, p := range trace {
		if !grid.InBounds(p) {
			return nil, fmt.Errorf("%w: cell %s is outside the %dx%d grid", ErrInvalidRequest, p, grid.Width(), grid.Height())
		}
	}

	obstacle, err := sess.Simulation.OnObstaclePlaced(trace, req.Duration)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidObstacle) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, err
	}

	return &ObstacleResult{
		SessionID: sess.ID,
		Obstacle:  &obstacle,
		Pending:   sess.Simulation.PendingCommands(),
		Message:   fmt.Sprintf("Obstacle %s queued over %d cells", obstacle.ID, len(obstacle.Trace)),
	}, nil
}

// ClearObstacle queues removal of the obstacle covering cell
func (s *simulationServiceImpl) ClearObstacle(ctx context.Context, sessionID string, cell engine.Point) (*ObstacleResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if !sess.Simulation.Grid().InBounds(cell) {
		return nil, fmt.Errorf("%w: cell %s is outside the grid", ErrInvalidRequest, cell)
	}

	sess.Simulation.OnObstacleCleared(cell)

	return &ObstacleResult{
		SessionID: sess.ID,
		Cell:      &cell,
		Pending:   sess.Simulation.PendingCommands(),
		Message:   fmt.Sprintf("Clear of %s queued", cell),
	}, nil
}

// Reset clears obstacles and restarts the traveller on the next tick
func (s *simulationServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.SimState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	sess.Simulation.Reset()

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: failed to persist session %s after reset: %v", sessionID, err)
	}

	return sess.Simulation.Snapshot(), nil
}

// GetState retrieves the current simulation state
func (s *simulationServiceImpl) GetState(ctx context.Context, sessionID string) (*engine.SimState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	return sess.Simulation.Snapshot(), nil
}

// GetEventHistory returns a page of the session's recent tick events
func (s *simulationServiceImpl) GetEventHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Simulation.History()
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultHistoryLimit
	}
	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	events := []engine.TravelEvent{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				events = append(events, history[i])
			}
		} else {
			events = append(events, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Events:      events,
		TotalEvents: total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available map configurations
func (s *simulationServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific map configuration
func (s *simulationServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.MapConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a map configuration to disk
func (s *simulationServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.MapConfig) error {
	return s.configs.SaveConfig(configName, config)
}
