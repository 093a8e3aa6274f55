package subscription

import "encoding/json"

// Negotiated WebSocket subprotocols.
const (
	// ProtocolGraphQLWS is the modern graphql-transport-ws protocol.
	ProtocolGraphQLWS = "graphql-transport-ws"
	// ProtocolLegacyWS is the legacy subscriptions-transport-ws protocol.
	ProtocolLegacyWS = "graphql-ws"
)

// Frame types shared by both protocols.
const (
	msgTypeConnectionInit = "connection_init"
	msgTypeConnectionAck  = "connection_ack"
	msgTypeError          = "error"
	msgTypeComplete       = "complete"
)

// graphql-transport-ws frame types.
const (
	msgTypePing      = "ping"
	msgTypePong      = "pong"
	msgTypeSubscribe = "subscribe"
	msgTypeNext      = "next"
)

// subscriptions-transport-ws frame types.
const (
	msgTypeConnectionKeepAlive = "ka"
	msgTypeStart               = "start"
	msgTypeData                = "data"
	msgTypeStop                = "stop"
)

// wsMessage is a single protocol frame.
type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
