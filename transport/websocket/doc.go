// Package websocket pushes solve-run notifications to browsers and tools.
//
// Clients connect to /ws?topic=<name>. The "runs" topic receives every
// event; any other topic name is a puzzle ID and receives only the events
// of runs over that puzzle.
//
// Architecture:
//
// A central Hub owns all connections. Each connection gets a read pump,
// which only keeps the connection alive, and a write pump that forwards
// queued messages and sends pings.
//
// Message Protocol:
//
//	{"topic": "runs", "event": "run_completed", "run": {...RunInfo...}}
//	{"topic": "runs", "event": "run_deleted", "data": {"id": "..."}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("topic"))
//	})
//
//	hub.BroadcastRun(info)
package websocket
