// Package service is the application layer between the transports
// (HTTP, WebSocket, MCP) and the board engine.
//
// BoardService exposes the stateless operations (validating a board,
// generating one, searching a path) next to the session-backed editor:
// a session owns one board, and every edit bumps its revision. Failed edits
// leave the board untouched.
//
// SessionManager and ConfigManager are the storage seams; the session and
// config packages provide the in-memory and file-backed implementations.
//
// Usage:
//
//	sessions := session.NewManager()
//	configs := config.NewManager("configs")
//	svc := service.NewBoardService(sessions, configs)
//
//	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{ConfigID: "classic"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	report, err := svc.ValidateSession(ctx, info.ID)
package service
