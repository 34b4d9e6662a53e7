// Package mcp exposes the board API to AI agents over the Model Context
// Protocol.
//
// Client is a thin proxy: every tool call becomes one REST request against
// the API server, and the JSON answer is turned into a short text report
// with the rendered board.
//
// MCP Tools:
//   - validate_board, generate_board, find_path
//   - list_configs, get_config
//   - create_session, get_session, list_sessions
//   - place_field, clear_field, add_wall, remove_wall, validate_session
//   - board_legend
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", log)
//
//	// stdio
//	server.ServeStdio(client.GetMCPServer())
//
//	// or one JSON-RPC message per HTTP request
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
