// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Trip events (server -> client)
	EventTypeEmissionsResolved EventType = "trip:emissions_resolved"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	ID        string      `json:"id,omitempty"`
}

// Subscription channels that clients can subscribe to
type ChannelType string

const (
	ChannelTrips  ChannelType = "trips"
	ChannelSystem ChannelType = "system"
)

// DefaultChannels are subscribed on connect.
var DefaultChannels = []ChannelType{ChannelTrips, ChannelSystem}

func (c ChannelType) Valid() bool {
	return c == ChannelTrips || c == ChannelSystem
}

// SubscribeRequest sent by client to subscribe to or leave channels
type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// TripEmission is one back-filled trip.
type TripEmission struct {
	TripID           int64    `json:"trip_id"`
	Co2Emissions     *float64 `json:"co2_emissions"`
	EmissionFactorID *int64   `json:"emission_factor_id,omitempty"`
	FactorGPerKm     *float64 `json:"factor_g_per_km,omitempty"`
}

// EmissionsResolvedData tells a user that pending trips now have emissions.
type EmissionsResolvedData struct {
	Trips []TripEmission `json:"trips"`
}

// Helper to create messages
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
