// Package validate checks map configuration files beyond the structural
// rules enforced by engine.ValidateMapConfig. It checks:
//   - JSON structure and the engine's own config validation
//   - Street connectivity: every street cell belongs to one network, so any
//     sampled destination can be reached from any start
//   - House frontage: houses with no street neighbour are reported as
//     warnings since no traveller can ever stand next to them
package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/wricardo/mcp-training/roadtraveller/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Errors is empty when Valid is true; Info and Warnings are filled either way.
type ValidationResult struct {
	File     string
	Valid    bool
	Errors   []string
	Warnings []string
	Info     []string
}

// ConnectivityReport describes how the street cells of a grid are connected.
type ConnectivityReport struct {
	Streets    int
	Houses     int
	Components int
	// Largest is the size of the biggest street network
	Largest int
	// Isolated lists street cells outside the biggest network
	Isolated []engine.Point
	// Landlocked lists houses with no street neighbour in the biggest network
	Landlocked []engine.Point
}

// Connected reports whether all street cells form a single network
func (r ConnectivityReport) Connected() bool {
	return r.Components == 1
}

// File loads and validates a single configuration JSON file
func File(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var config engine.MapConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	checked := Config(&config)
	checked.File = result.File
	return checked
}

// Config validates an already decoded configuration
func Config(config *engine.MapConfig) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if err := engine.ValidateMapConfig(config); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}

	grid, err := engine.NewGridFromConfig(config, 1)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to build grid: %v", err))
		return result
	}

	report := Connectivity(grid)
	if !report.Connected() {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Connectivity failure: %d street networks, %d/%d street cells cut off from the largest",
			report.Components, len(report.Isolated), report.Streets))
		for i, p := range report.Isolated {
			if i == 5 {
				result.Errors = append(result.Errors, fmt.Sprintf("... and %d more", len(report.Isolated)-5))
				break
			}
			result.Errors = append(result.Errors, fmt.Sprintf("Isolated street at %s", p))
		}
	}

	if len(report.Landlocked) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("%d/%d houses have no street frontage", len(report.Landlocked), report.Houses))
	}

	result.Info = append(result.Info,
		fmt.Sprintf("Name: %s", config.Name),
		fmt.Sprintf("Grid: %dx%d", config.Width, config.Height),
		fmt.Sprintf("Houses: %d", report.Houses),
		fmt.Sprintf("Streets: %d", report.Streets),
		fmt.Sprintf("Obstacle padding: %d", config.ObstaclePadding),
	)
	if report.Connected() {
		result.Info = append(result.Info, fmt.Sprintf("Connectivity: all %d street cells form one network", report.Streets))
	}

	return result
}

// Connectivity flood-fills the street cells of grid using 4-directional
// movement and reports the resulting networks.
func Connectivity(grid *engine.Grid) ConnectivityReport {
	var report ConnectivityReport

	width, height := grid.Bounds()
	component := make([]int, width*height)
	var sizes []int

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := engine.Point{X: x, Y: y}
			switch grid.Classify(p) {
			case engine.CellHouse:
				report.Houses++
				continue
			case engine.CellObstacle:
				continue
			}
			report.Streets++
			if component[y*width+x] != 0 {
				continue
			}

			id := len(sizes) + 1
			size := 0
			queue := []engine.Point{p}
			component[y*width+x] = id
			for len(queue) > 0 {
				current := queue[0]
				queue = queue[1:]
				size++

				for _, next := range current.Neighbors() {
					if !grid.InBounds(next) || grid.Classify(next) != engine.CellStreet {
						continue
					}
					if idx := next.Y*width + next.X; component[idx] == 0 {
						component[idx] = id
						queue = append(queue, next)
					}
				}
			}
			sizes = append(sizes, size)
		}
	}

	report.Components = len(sizes)
	largest := 0
	for i, size := range sizes {
		if size > report.Largest {
			report.Largest = size
			largest = i + 1
		}
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := engine.Point{X: x, Y: y}
			switch grid.Classify(p) {
			case engine.CellStreet:
				if component[y*width+x] != largest {
					report.Isolated = append(report.Isolated, p)
				}
			case engine.CellHouse:
				fronted := false
				for _, next := range p.Neighbors() {
					if grid.InBounds(next) && component[next.Y*width+next.X] == largest && largest != 0 {
						fronted = true
						break
					}
				}
				if !fronted {
					report.Landlocked = append(report.Landlocked, p)
				}
			}
		}
	}

	return report
}

// Dir validates every *.json file in dir, sorted by file name
func Dir(dir string) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	sort.Strings(files)

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}
