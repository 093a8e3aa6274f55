// Package subscription implements the client side of GraphQL
// subscriptions over WebSocket.
//
// A Channel is one physical connection that multiplexes any number of
// subscription operations. Outbound frames are serialized; inbound
// frames are demultiplexed by operation identifier in a single reader
// loop, so subscriptions never share a cursor.
//
// Both the modern graphql-transport-ws protocol and the legacy
// subscriptions-transport-ws (graphql-ws) protocol are supported; the
// variant is negotiated as the WebSocket subprotocol during the dial.
//
// Basic usage:
//
//	ch, err := subscription.Dial(ctx, "wss://api.example.com/graphql", headers, nil)
//	if err != nil {
//	    return err
//	}
//	defer ch.Close()
//
//	sub, err := ch.Subscribe(ctx, `subscription { messageAdded { id text } }`, nil)
//	if err != nil {
//	    return err
//	}
//	for ev := range sub.Events() {
//	    switch ev.Kind {
//	    case subscription.EventData:
//	        handle(ev.Data)
//	    case subscription.EventError:
//	        log.Println(ev)
//	    }
//	}
//
// The channel never reconnects on its own: silently re-establishing a
// dropped connection could replay in-flight operations, so reconnection
// is always a caller decision.
package subscription
