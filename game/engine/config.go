package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// HouseRun describes a straight row or column of houses, the way level
// data is usually written down.
type HouseRun struct {
	X           int         `json:"x"`
	Y           int         `json:"y"`
	Length      int         `json:"length"`
	Orientation Orientation `json:"orientation"`
}

// Cells expands the run into individual house cells
func (r HouseRun) Cells() []Point {
	step := Point{X: 1}
	if r.Orientation == Vertical {
		step = Point{Y: 1}
	}
	cells := make([]Point, 0, r.Length)
	p := Point{X: r.X, Y: r.Y}
	for i := 0; i < r.Length; i++ {
		cells = append(cells, p)
		p = p.Add(step)
	}
	return cells
}

// MapConfig represents the simulation configuration loaded from JSON
type MapConfig struct {
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Width           int           `json:"width"`
	Height          int           `json:"height"`
	Houses          []Point       `json:"houses,omitempty"`
	HouseRuns       []HouseRun    `json:"house_runs,omitempty"`
	ObstaclePadding int           `json:"obstacle_padding"`
	MaxGoalAttempts int           `json:"max_goal_attempts,omitempty"`
	MaxExpansions   int           `json:"max_expansions,omitempty"`
	Seed            uint64        `json:"seed,omitempty"`
	Messages        EventMessages `json:"messages"`
}

// HouseCells returns every house cell of the map, explicit houses first,
// then expanded runs, without duplicates.
func (c *MapConfig) HouseCells() []Point {
	seen := make(BlockedSet)
	var cells []Point
	add := func(p Point) {
		if !seen.Has(p) {
			seen.Add(p)
			cells = append(cells, p)
		}
	}
	for _, h := range c.Houses {
		add(h)
	}
	for _, run := range c.HouseRuns {
		for _, h := range run.Cells() {
			add(h)
		}
	}
	return cells
}

// ValidateMapConfig validates a map configuration for correctness and usability
func ValidateMapConfig(config *MapConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.Width < MinGridSize || config.Width > MaxGridSize {
		return fmt.Errorf("config validation: width must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Width)
	}
	if config.Height < MinGridSize || config.Height > MaxGridSize {
		return fmt.Errorf("config validation: height must be between %d and %d, got %d", MinGridSize, MaxGridSize, config.Height)
	}

	if config.ObstaclePadding < 0 || config.ObstaclePadding > MaxObstaclePadding {
		return fmt.Errorf("config validation: obstacle_padding must be between 0 and %d, got %d", MaxObstaclePadding, config.ObstaclePadding)
	}
	if config.MaxGoalAttempts < 0 {
		return fmt.Errorf("config validation: max_goal_attempts cannot be negative, got %d", config.MaxGoalAttempts)
	}
	if config.MaxExpansions < 0 {
		return fmt.Errorf("config validation: max_expansions cannot be negative, got %d", config.MaxExpansions)
	}

	for i, run := range config.HouseRuns {
		if run.Length < 1 {
			return fmt.Errorf("config validation: house_runs[%d] length must be positive, got %d", i, run.Length)
		}
		if run.Orientation != Horizontal && run.Orientation != Vertical {
			return fmt.Errorf("config validation: house_runs[%d] orientation must be 'horizontal' or 'vertical', got '%s'", i, run.Orientation)
		}
	}

	houses := config.HouseCells()
	for _, h := range houses {
		if h.X < 0 || h.Y < 0 || h.X >= config.Width || h.Y >= config.Height {
			return fmt.Errorf("config validation: house at (%d, %d) is outside the %dx%d grid", h.X, h.Y, config.Width, config.Height)
		}
	}

	if len(houses) == 0 {
		return fmt.Errorf("config validation: map must contain at least one house")
	}
	if len(houses) >= config.Width*config.Height {
		return fmt.Errorf("config validation: map must contain at least one street cell")
	}

	return validateMessages(config)
}

func validateMessages(config *MapConfig) error {
	if m := config.Messages.DestinationReached; m != "" && !strings.Contains(m, "%s") {
		return fmt.Errorf("config validation: messages.destination_reached must contain %%s for the new goal")
	}
	if m := config.Messages.Replanned; m != "" && !strings.Contains(m, "%d") {
		return fmt.Errorf("config validation: messages.replanned must contain %%d for the path length")
	}
	if m := config.Messages.Started; m != "" && !strings.Contains(m, "%s") {
		return fmt.Errorf("config validation: messages.started must contain %%s for the goal")
	}
	if m := config.Messages.ObstacleConsumed; m != "" && !strings.Contains(m, "%s") {
		return fmt.Errorf("config validation: messages.obstacle_consumed must contain %%s for the position")
	}
	if m := config.Messages.NoRoute; strings.Contains(m, "%") {
		return fmt.Errorf("config validation: messages.no_route takes no arguments")
	}
	return nil
}

// LoadMapConfig loads a map configuration from a JSON file
func LoadMapConfig(filename string) (*MapConfig, error) {
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config MapConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateMapConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// NewGridFromConfig builds the grid described by config. A zero seed in the
// config is replaced by the supplied fallback.
func NewGridFromConfig(config *MapConfig, fallbackSeed uint64) (*Grid, error) {
	seed := config.Seed
	if seed == 0 {
		seed = fallbackSeed
	}
	return NewGrid(config.Width, config.Height, config.HouseCells(), seed)
}

// DefaultMapConfig returns the built-in "classic" neighbourhood: a 10x18
// block framed by houses with a few inner rows of houses.
func DefaultMapConfig() *MapConfig {
	row := func(x, y, n int) HouseRun { return HouseRun{X: x, Y: y, Length: n, Orientation: Horizontal} }
	col := func(x, y, n int) HouseRun { return HouseRun{X: x, Y: y, Length: n, Orientation: Vertical} }

	config := &MapConfig{
		Name:        "classic",
		Description: "Walled 10x18 neighbourhood with inner house blocks",
		Width:       10,
		Height:      18,
		HouseRuns: []HouseRun{
			row(0, 0, 10), col(0, 1, 16), col(9, 1, 16), row(0, 17, 10),
			row(2, 2, 6), row(2, 3, 6),
			row(2, 5, 4), row(2, 6, 4), col(7, 5, 2),
			col(2, 11, 2), row(4, 11, 4), row(4, 12, 4),
			row(2, 14, 6), row(2, 15, 6),
		},
		ObstaclePadding: DefaultObstaclePadding,
		MaxGoalAttempts: DefaultMaxGoalAttempts,
	}
	config.Messages.Started = "Traveller set off towards %s"
	config.Messages.Replanned = "Obstacle ahead, new route with %d steps"
	config.Messages.DestinationReached = "Destination reached, heading to %s"
	config.Messages.ObstacleConsumed = "Cleared obstacle at %s"
	config.Messages.NoRoute = "No route available"
	return config
}
