// Package engine implements the road traveller simulation.
//
// A traveller lives on a rectangular grid of street and house cells. On
// every tick it either advances one cell along its current route, replans
// because a freshly placed obstacle cut that route, clears an obstacle
// dropped on its own cell, or picks a new house to head for once it has
// arrived.
//
// Core Types:
//
// Grid classifies cells and owns the blocked set searches run against.
// PathFinder runs A* with a Manhattan heuristic over 4-connected unit-cost
// moves and breaks ties between equal f-scores in insertion order.
// ObstacleTracker keeps each dynamic obstacle with its padded footprint so
// the simulation can tell whether a new obstacle touches the remaining
// route. Simulation ties the three together behind a tick-driven state
// machine; MapConfig describes a map in JSON.
//
// Usage:
//
//	sim, err := engine.NewSimulationFromConfig(engine.DefaultMapConfig(), 42)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sim.OnObstaclePlaced([]engine.Point{{X: 4, Y: 8}}, 0)
//	for i := 0; i < 10; i++ {
//		ev := sim.Tick()
//		fmt.Println(ev.Type, ev.Position)
//	}
//
// Obstacle input is queued and applied at the start of the next tick, so a
// search never sees the grid change underneath it.
package engine
