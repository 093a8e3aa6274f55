package subscription

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/gqlnav/gqlnav/pkg/graphql"
	"github.com/gqlnav/gqlnav/pkg/logging"
)

// ErrChannelClosed is returned by Subscribe on a closed channel.
var ErrChannelClosed = errors.New("subscription channel is closed")

const (
	// defaultEventBuffer is the per-subscription event buffer size.
	defaultEventBuffer = 64
	// writeTimeout bounds a single outbound frame write.
	writeTimeout = 5 * time.Second
)

// Options configures a Dial.
type Options struct {
	// ConnectionPayload is sent with connection_init (commonly used for
	// connection-scoped auth).
	ConnectionPayload any
	// InsecureSkipTLS disables certificate verification for this
	// connection only.
	InsecureSkipTLS bool
	// HTTPClient overrides the client used for the WebSocket handshake.
	HTTPClient *http.Client
	// EventBuffer is the per-subscription event buffer size. Zero means
	// defaultEventBuffer.
	EventBuffer int
	// Logger receives channel logs. Nil disables logging.
	Logger *slog.Logger
}

// Channel is one persistent WebSocket connection carrying any number of
// subscription operations.
type Channel struct {
	conn     *websocket.Conn
	endpoint string
	protocol string
	buffer   int
	logger   *slog.Logger

	writeMu sync.Mutex

	mu     sync.Mutex
	subs   map[string]*Subscription
	closed bool

	readCancel context.CancelFunc
	readerDone chan struct{}
}

// Dial opens a channel to the given endpoint. http(s) endpoints are
// rewritten to ws(s). The connection is established, connection_init is
// sent, and the server's connection_ack is awaited before Dial returns;
// any failure along the way is reported as a transport error and the
// channel is never retried automatically.
func Dial(ctx context.Context, endpoint string, headers []graphql.Header, opts *Options) (*Channel, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	buffer := opts.EventBuffer
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}

	wsURL, err := normalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	hdr := http.Header{}
	for _, h := range headers {
		hdr.Add(h.Name, h.Value)
	}

	dialOpts := &websocket.DialOptions{
		Subprotocols: []string{ProtocolGraphQLWS, ProtocolLegacyWS},
		HTTPHeader:   hdr,
	}
	switch {
	case opts.HTTPClient != nil:
		dialOpts.HTTPClient = opts.HTTPClient
	case opts.InsecureSkipTLS:
		dialOpts.HTTPClient = &http.Client{
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // requested for this connection
			},
		}
	}

	conn, _, err := websocket.Dial(ctx, wsURL, dialOpts)
	if err != nil {
		return nil, graphql.NewError(graphql.KindTransport, "websocket dial failed", err)
	}

	protocol := conn.Subprotocol()
	if protocol == "" {
		protocol = ProtocolGraphQLWS
	}

	c := &Channel{
		conn:       conn,
		endpoint:   endpoint,
		protocol:   protocol,
		buffer:     buffer,
		logger:     logger,
		subs:       make(map[string]*Subscription),
		readerDone: make(chan struct{}),
	}

	if err := c.init(ctx, opts.ConnectionPayload); err != nil {
		_ = conn.Close(websocket.StatusProtocolError, "handshake failed")
		return nil, err
	}

	readCtx, cancel := context.WithCancel(context.Background())
	c.readCancel = cancel
	go c.readLoop(readCtx)

	logger.Debug("subscription channel open", "endpoint", endpoint, "protocol", protocol)
	return c, nil
}

// Endpoint returns the endpoint the channel was dialed with.
func (c *Channel) Endpoint() string {
	return c.endpoint
}

// Protocol returns the negotiated subprotocol.
func (c *Channel) Protocol() string {
	return c.protocol
}

// init performs the connection_init / connection_ack handshake.
func (c *Channel) init(ctx context.Context, payload any) error {
	msg := wsMessage{Type: msgTypeConnectionInit}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal connection payload: %w", err)
		}
		msg.Payload = data
	}
	if err := c.write(ctx, &msg); err != nil {
		return graphql.NewError(graphql.KindTransport, "connection_init failed", err)
	}

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return graphql.NewError(graphql.KindTransport, "connection_ack not received", err)
		}
		var in wsMessage
		if err := json.Unmarshal(data, &in); err != nil {
			return graphql.NewError(graphql.KindProtocol, "undecodable frame during handshake", err)
		}
		switch in.Type {
		case msgTypeConnectionAck:
			return nil
		case msgTypeConnectionKeepAlive:
			// Legacy servers may interleave keep-alives with the ack.
		case msgTypePing:
			_ = c.write(ctx, &wsMessage{Type: msgTypePong, Payload: in.Payload})
		default:
			return graphql.NewError(graphql.KindProtocol,
				fmt.Sprintf("unexpected %q frame before connection_ack", in.Type), nil)
		}
	}
}

// Subscribe starts a new operation on the channel and returns its event
// sequence. A failure to transmit the subscribe frame completes the
// sequence with a single error event; no retry is attempted.
func (c *Channel) Subscribe(ctx context.Context, query string, variables any) (*Subscription, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrChannelClosed
	}
	id := uuid.NewString()
	sub := newSubscription(id, c.buffer, c.logger)
	c.subs[id] = sub
	c.mu.Unlock()

	if variables == nil {
		variables = map[string]any{}
	}
	payload, err := json.Marshal(graphql.Request{Query: query, Variables: variables})
	if err != nil {
		c.remove(id)
		return nil, err
	}

	frameType := msgTypeSubscribe
	if c.protocol == ProtocolLegacyWS {
		frameType = msgTypeStart
	}
	if err := c.write(ctx, &wsMessage{ID: id, Type: frameType, Payload: payload}); err != nil {
		c.remove(id)
		sub.deliver(Event{
			Kind: EventError,
			Err:  graphql.NewError(graphql.KindTransport, "subscribe failed", err),
		})
		return sub, nil
	}

	c.logger.Debug("subscribed", "id", id)
	return sub, nil
}

// Cancel stops the operation with the given identifier. It sends the
// protocol stop frame and guarantees that no further event is delivered
// once it returns. Cancelling an unknown or already-complete identifier
// is a no-op.
func (c *Channel) Cancel(ctx context.Context, id string) error {
	c.mu.Lock()
	sub, ok := c.subs[id]
	if ok {
		delete(c.subs, id)
	}
	closed := c.closed
	c.mu.Unlock()
	if !ok {
		return nil
	}

	sub.stop()
	if closed {
		return nil
	}

	frameType := msgTypeComplete
	if c.protocol == ProtocolLegacyWS {
		frameType = msgTypeStop
	}
	// Best effort: the subscription is already detached locally.
	if err := c.write(ctx, &wsMessage{ID: id, Type: frameType}); err != nil {
		c.logger.Debug("stop frame not sent", "id", id, "error", err)
	}
	return nil
}

// Close cancels all live subscriptions and tears the connection down.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	subs := make(map[string]*Subscription, len(c.subs))
	for id, sub := range c.subs {
		subs[id] = sub
	}
	c.subs = make(map[string]*Subscription)
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	frameType := msgTypeComplete
	if c.protocol == ProtocolLegacyWS {
		frameType = msgTypeStop
	}
	for id, sub := range subs {
		if err := c.write(ctx, &wsMessage{ID: id, Type: frameType}); err != nil {
			c.logger.Debug("stop frame not sent during close", "id", id, "error", err)
		}
		sub.stop()
	}

	err := c.conn.Close(websocket.StatusNormalClosure, "client closing")
	c.readCancel()
	<-c.readerDone
	c.logger.Debug("subscription channel closed", "endpoint", c.endpoint)
	return err
}

// readLoop is the single inbound reader. It demultiplexes frames to
// subscriptions by identifier; no lock is shared between consumers.
func (c *Channel) readLoop(ctx context.Context) {
	defer close(c.readerDone)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			c.fail(err)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Without an identifier the frame cannot be attributed to
			// an operation, so it is dropped.
			c.logger.Warn("discarding undecodable frame", "error", err)
			continue
		}
		c.dispatch(ctx, &msg)
	}
}

func (c *Channel) dispatch(ctx context.Context, msg *wsMessage) {
	switch msg.Type {
	case msgTypeNext, msgTypeData:
		sub := c.lookup(msg.ID)
		if sub == nil {
			return // late frame for a cancelled or completed operation
		}
		if len(msg.Payload) == 0 {
			c.remove(msg.ID)
			sub.deliver(Event{
				Kind: EventError,
				Err:  graphql.NewError(graphql.KindProtocol, "malformed subscription frame: missing payload", nil),
			})
			return
		}
		sub.deliver(Event{Kind: EventData, Data: msg.Payload})

	case msgTypeError:
		sub := c.lookup(msg.ID)
		if sub == nil {
			return
		}
		c.remove(msg.ID)
		sub.deliver(Event{Kind: EventError, Errors: decodeErrorPayload(msg.Payload)})

	case msgTypeComplete:
		sub := c.lookup(msg.ID)
		if sub == nil {
			return
		}
		c.remove(msg.ID)
		sub.deliver(Event{Kind: EventComplete})

	case msgTypePing:
		if err := c.write(ctx, &wsMessage{Type: msgTypePong, Payload: msg.Payload}); err != nil {
			c.logger.Debug("pong not sent", "error", err)
		}

	case msgTypeConnectionKeepAlive, msgTypePong, msgTypeConnectionAck:
		// Housekeeping frames carry no operation data.

	default:
		if msg.ID == "" {
			c.logger.Warn("ignoring unknown frame", "type", msg.Type)
			return
		}
		if sub := c.lookup(msg.ID); sub != nil {
			c.remove(msg.ID)
			sub.deliver(Event{
				Kind: EventError,
				Err: graphql.NewError(graphql.KindProtocol,
					fmt.Sprintf("malformed subscription frame: unknown type %q", msg.Type), nil),
			})
		}
	}
}

// fail terminates every live subscription after a connection loss. A
// deliberate Close is not a failure.
func (c *Channel) fail(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = make(map[string]*Subscription)
	c.mu.Unlock()

	c.logger.Warn("subscription channel lost", "endpoint", c.endpoint, "error", err)
	for _, sub := range subs {
		sub.deliver(Event{
			Kind: EventError,
			Err:  graphql.NewError(graphql.KindTransport, "connection lost", err),
		})
	}
}

func (c *Channel) lookup(id string) *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs[id]
}

func (c *Channel) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

// write serializes one outbound frame. Frames from concurrent
// subscriptions are serialized by writeMu.
func (c *Channel) write(ctx context.Context, msg *wsMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, writeTimeout)
		defer cancel()
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// decodeErrorPayload decodes the payload of an error frame, which is a
// list of GraphQL errors (or, from some servers, a single object).
func decodeErrorPayload(payload json.RawMessage) []graphql.ResponseError {
	var list []graphql.ResponseError
	if err := json.Unmarshal(payload, &list); err == nil {
		return list
	}
	var single graphql.ResponseError
	if err := json.Unmarshal(payload, &single); err == nil && single.Message != "" {
		return []graphql.ResponseError{single}
	}
	return []graphql.ResponseError{{Message: "subscription failed"}}
}

// normalizeEndpoint rewrites http(s) schemes to ws(s) and validates the
// URL shape.
func normalizeEndpoint(endpoint string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("invalid endpoint URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "":
		return "", fmt.Errorf("unsupported URL scheme: missing")
	default:
		return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in URL")
	}
	return u.String(), nil
}
