// Package api provides the HTTP REST API of the board server.
//
// Endpoints:
//
// Board operations:
//   - POST /api/validate - Check a board config for connectivity and structure
//   - POST /api/generate - Generate a random playable board
//   - POST /api/path - Run a path search on a session board or inline config
//   - GET /api/schema - JSON schema of the board config payload
//
// Session Management:
//   - POST /api/sessions - Create session (config_id, inline config or width/height)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&config=ID)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Board editing:
//   - POST /api/sessions/{id}/fields - Place a field
//   - DELETE /api/sessions/{id}/fields - Clear the field at {"position": [x, y]}
//   - POST /api/sessions/{id}/walls - Add {"wall": [[x, y], [x, y]]}
//   - DELETE /api/sessions/{id}/walls - Remove a wall
//   - POST /api/sessions/{id}/validate - Validate the session board
//
// Configuration:
//   - GET /api/configs - List presets
//   - GET /api/configs/{name} - Get one preset
//   - POST /api/configs - Save a playable preset
//
// Accepted edits and validation runs are pushed to /ws?session={id}
// listeners through the websocket hub.
//
// Errors are returned as JSON:
//
//	{
//	  "error": "cell already occupied: (2,3)",
//	  "code": 400
//	}
//
// Missing sessions and presets map to 404, duplicate session IDs to 409,
// exhausted generation to 422 and malformed boards or requests to 400.
package api
