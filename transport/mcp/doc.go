// Package mcp exposes the simulation to AI agents through the Model Context
// Protocol, using github.com/mark3labs/mcp-go.
//
// Client is a thin proxy: every tool call is translated into a REST request
// against the api package's endpoints and the JSON response is rendered as
// plain text (including the ASCII map) for the agent. Nothing is cached on
// the client side, so the same Client can serve stdio and the HTTP /mcp
// endpoint.
//
// Tools:
//
//	create_session, list_sessions, get_session
//	sim_state, tick, place_obstacle, clear_obstacle, reset, event_history
//	list_configs, instructions, describe_cell
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
