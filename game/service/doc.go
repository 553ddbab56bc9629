// Package service provides the business logic layer for the road traveller
// simulation server.
//
// SimulationService is the interface every transport (HTTP, WebSocket, MCP)
// talks to. It owns session lookup, bulk ticking with a hard cap, obstacle
// request validation and event history paging. SessionManager and
// ConfigManager are the storage seams; the session and config packages
// provide the real implementations.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	svc := service.NewSimulationService(sessionMgr, configMgr)
//
//	info, err := svc.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	svc.PlaceObstacle(ctx, info.ID, service.ObstacleRequest{X: 3, Y: 4, Length: 2})
//	result, err := svc.Tick(ctx, info.ID, 10)
//
// Obstacle requests are queued inside the simulation and only take effect
// on the next tick, so a PlaceObstacle followed by GetState still shows the
// command as pending.
package service
