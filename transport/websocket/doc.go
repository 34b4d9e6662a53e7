// Package websocket pushes board session events to browsers and editors.
//
// A central Hub keeps the connected clients grouped by session ID. Clients
// connect with ?session=<id> and only receive the events of that session:
// board_update after every accepted edit, validation after a validation run,
// and session_deleted when the session goes away. Clients never send
// commands; the read pump only keeps the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub(log)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.Broadcast(sessionID, websocket.EventBoardUpdate, info)
//
// The client map is owned by the Run goroutine; everything else talks to it
// over channels. Broadcast never blocks the caller.
package websocket
