// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrHubClosed    = errors.New("websocket hub is closed")
	ErrUnauthorized = errors.New("unauthorized")
)
