package service

import (
	"time"

	"github.com/wricardo/mcp-training/roadtraveller/game/engine"
)

// SessionInfo provides information about a simulation session
type SessionInfo struct {
	ID             string            `json:"id"`
	ConfigName     string            `json:"config_name"`
	Seed           uint64            `json:"seed"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	State          *engine.SimState  `json:"state"`
	MapConfig      *engine.MapConfig `json:"map_config"`
}

// TickResult summarises one or more ticks of a session
type TickResult struct {
	SessionID      string               `json:"session_id"`
	RequestedTicks int                  `json:"requested_ticks"`
	TicksExecuted  int                  `json:"ticks_executed"`
	Truncated      bool                 `json:"truncated,omitempty"`
	Limit          int                  `json:"limit,omitempty"`
	StartPos       engine.Point         `json:"start_pos"`
	EndPos         engine.Point         `json:"end_pos"`
	Steps          int                  `json:"steps"`
	Replans        int                  `json:"replans"`
	Arrivals       int                  `json:"arrivals"`
	Events         []engine.TravelEvent `json:"events"`
	State          *engine.SimState     `json:"state"`
	Message        string               `json:"message,omitempty"`
}

// ObstacleRequest describes an obstacle to place. Explicit cells win over
// the line description; a zero length means a single cell.
type ObstacleRequest struct {
	X           int                `json:"x"`
	Y           int                `json:"y"`
	Length      int                `json:"length,omitempty"`
	Orientation engine.Orientation `json:"orientation,omitempty"`
	Duration    int                `json:"duration,omitempty"`
	Cells       []engine.Point     `json:"cells,omitempty"`
}

// ObstacleResult reports a queued obstacle command
type ObstacleResult struct {
	SessionID string           `json:"session_id"`
	Obstacle  *engine.Obstacle `json:"obstacle,omitempty"`
	Cell      *engine.Point    `json:"cell,omitempty"`
	Pending   int              `json:"pending_commands"`
	Message   string           `json:"message"`
}

// HistoryOptions configures event history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated tick events
type HistoryResponse struct {
	Events      []engine.TravelEvent `json:"events"`
	TotalEvents int                  `json:"total_events"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"page_size"`
	TotalPages  int                  `json:"total_pages"`
	HasNext     bool                 `json:"has_next"`
	HasPrevious bool                 `json:"has_previous"`
}

// ConfigInfo provides information about a map configuration
type ConfigInfo struct {
	Filename        string `json:"filename"`
	ConfigID        string `json:"config_id"` // The identifier to use for session creation
	Name            string `json:"name"`      // Display name
	Description     string `json:"description"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Houses          int    `json:"houses"`
	ObstaclePadding int    `json:"obstacle_padding"`
}

// NewConfigInfo summarises a loaded map configuration
func NewConfigInfo(filename, configID string, config *engine.MapConfig) *ConfigInfo {
	return &ConfigInfo{
		Filename:        filename,
		ConfigID:        configID,
		Name:            config.Name,
		Description:     config.Description,
		Width:           config.Width,
		Height:          config.Height,
		Houses:          len(config.HouseCells()),
		ObstaclePadding: config.ObstaclePadding,
	}
}
