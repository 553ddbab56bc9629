// Package websocket pushes live simulation updates to browser viewers.
//
// A single Hub tracks viewer connections per session. Viewers connect with
// ?session=<id> and only receive messages for that session. The server
// broadcasts a "state_update" message after every mutation made through the
// REST API and a "tick" message, carrying the tick events, whenever a
// session advances (manually or from the auto-tick runner).
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Each connection runs a read pump (keepalive only) and a write pump with
// periodic pings. A viewer that falls more than a send buffer behind is
// disconnected.
package websocket
