// Package api exposes the simulation service over a REST API built on
// gorilla/mux.
//
// Endpoints:
//
//	POST   /api/sessions                      create a session {"config_id": "classic"}
//	GET    /api/sessions                      list sessions (?sort=created|accessed&order=asc|desc&limit=N)
//	GET    /api/sessions/unified              sessions for the multi-session viewer
//	GET    /api/sessions/{id}                 session info with state
//	DELETE /api/sessions/{id}                 delete a session
//	GET    /api/sessions/{id}/state           current simulation state
//	POST   /api/sessions/{id}/tick            advance {"steps": N}, capped at engine.MaxBulkTicks
//	POST   /api/sessions/{id}/obstacles       queue an obstacle {"x","y","length","orientation","duration"} or {"cells": [...]}
//	POST   /api/sessions/{id}/obstacles/clear queue removal of the obstacle at {"x","y"}
//	POST   /api/sessions/{id}/reset           clear obstacles and restart the traveller
//	GET    /api/sessions/{id}/history         paginated tick events (?page&limit&order)
//	GET    /api/configs                       list map configurations
//	POST   /api/configs                       save a map configuration
//	GET    /api/configs/{name}                fetch one map configuration
//	GET    /health                            liveness
//	GET    /ws?session={id}                   live updates
//
// Obstacle endpoints answer 202 Accepted: the command is queued and applied
// at the start of the session's next tick.
//
// Errors are JSON objects of the form {"error": "message"}. Malformed
// requests get 400, unknown sessions and configs 404.
package api
