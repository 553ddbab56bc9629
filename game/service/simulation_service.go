package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/mcp-training/roadtraveller/game/engine"
)

// ErrInvalidRequest marks caller mistakes such as a malformed obstacle
var ErrInvalidRequest = errors.New("invalid request")

// SimulationService defines all simulation-related operations
type SimulationService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Simulation Operations
	Tick(ctx context.Context, sessionID string, steps int) (*TickResult, error)
	PlaceObstacle(ctx context.Context, sessionID string, req ObstacleRequest) (*ObstacleResult, error)
	ClearObstacle(ctx context.Context, sessionID string, cell engine.Point) (*ObstacleResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.SimState, error)
	TickAll(ctx context.Context) ([]*TickResult, error)

	// Simulation State
	GetState(ctx context.Context, sessionID string) (*engine.SimState, error)
	GetEventHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.MapConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.MapConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, config *engine.MapConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configID string, config *engine.MapConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles map configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.MapConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.MapConfig
	SaveConfig(name string, config *engine.MapConfig) error
}

// Session represents an active simulation session
type Session struct {
	ID             string
	ConfigID       string
	Seed           uint64
	Simulation     *engine.Simulation
	Config         *engine.MapConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
