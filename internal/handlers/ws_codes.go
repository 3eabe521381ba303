// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes, more specific than the standard set.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	InvalidTokenError   = 3001 // Guest identity could not be established.
)
