// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Session token was missing, invalid or expired.
	InvalidSeatError      = 3002 // The token's seat could not be bound to the room.
	InvalidRoomIDError    = 3003 // Target room ID does not exist or is closed.
)
