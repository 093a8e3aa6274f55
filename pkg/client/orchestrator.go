// Package client orchestrates GraphQL operations across the HTTP
// transport and the subscription channel.
//
// The Orchestrator is the façade callers submit work to: it classifies
// the operation text, routes subscriptions to a shared WebSocket
// channel and everything else to the HTTP transport, and enforces
// at-most-one-in-flight semantics per slot. Submitting a new request
// while one is pending cancels the pending one, and the superseded
// caller gets ErrSuperseded instead of a stale result.
package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gqlnav/gqlnav/pkg/graphql"
	"github.com/gqlnav/gqlnav/pkg/introspection"
	"github.com/gqlnav/gqlnav/pkg/logging"
	"github.com/gqlnav/gqlnav/pkg/subscription"
	"github.com/gqlnav/gqlnav/pkg/transport"
)

// ErrSuperseded is returned to a caller whose request was replaced by a
// newer submission on the same slot before its result was published.
var ErrSuperseded = errors.New("request superseded by a newer submission")

// Transport executes a single GraphQL HTTP request.
type Transport interface {
	Execute(ctx context.Context, spec *graphql.RequestSpec) (*graphql.RequestResult, error)
}

// Channel is the subscription surface the orchestrator drives. It is
// satisfied by *subscription.Channel.
type Channel interface {
	Subscribe(ctx context.Context, query string, variables any) (*subscription.Subscription, error)
	Cancel(ctx context.Context, id string) error
	Close() error
}

// Dialer opens a subscription channel to an endpoint.
type Dialer func(ctx context.Context, endpoint string, headers []graphql.Header, opts *subscription.Options) (Channel, error)

// Options configures an Orchestrator. Zero values select the real
// transport and dialer.
type Options struct {
	Transport Transport
	Dialer    Dialer
	Logger    *slog.Logger
}

// Outcome is the uniform result of Send: a RequestResult for queries
// and mutations, or a live Subscription handle for subscriptions.
type Outcome struct {
	Kind          graphql.OperationKind
	OperationName string
	Result        *graphql.RequestResult
	Subscription  *subscription.Subscription
}

// slot tracks one at-most-one-in-flight operation class. The
// generation counter makes a superseded operation's late result
// provably discardable: publishing compares generations under the
// orchestrator mutex.
type slot struct {
	generation uint64
	cancel     context.CancelFunc
}

// begin supersedes any pending operation on the slot and returns the
// new generation plus a derived context.
func (s *slot) begin(ctx context.Context) (uint64, context.Context) {
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	ctx, s.cancel = context.WithCancel(ctx)
	return s.generation, ctx
}

// finish marks the slot idle if gen is still current. It reports
// whether the caller may publish its result.
func (s *slot) finish(gen uint64) bool {
	if gen != s.generation {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}

// Orchestrator routes operations and serializes in-flight state. It is
// safe for concurrent use.
type Orchestrator struct {
	transport Transport
	dialer    Dialer
	logger    *slog.Logger

	mu         sync.Mutex
	sendSlot   slot
	schemaSlot slot
	catalog    *introspection.Catalog

	channel         Channel
	channelEndpoint string
}

// New builds an Orchestrator. A nil Transport uses the default HTTP
// client; a nil Dialer uses subscription.Dial.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	tr := opts.Transport
	if tr == nil {
		tr = &transport.Client{Logger: logger}
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = func(ctx context.Context, endpoint string, headers []graphql.Header, opts *subscription.Options) (Channel, error) {
			return subscription.Dial(ctx, endpoint, headers, opts)
		}
	}
	return &Orchestrator{transport: tr, dialer: dialer, logger: logger}
}

// Send executes the operation described by spec. Operation text whose
// leading keyword is "subscription" is routed to the subscription
// channel; everything else, including text that fails to parse, goes
// to the HTTP transport, which surfaces any server-side error in the
// result. If another Send is pending, it is superseded and its caller
// receives ErrSuperseded.
func (o *Orchestrator) Send(ctx context.Context, spec *graphql.RequestSpec) (*Outcome, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	kind, name := graphql.Classify(spec.Query)
	if kind == graphql.OpSubscription {
		sub, err := o.subscribe(ctx, spec)
		if err != nil {
			return nil, err
		}
		return &Outcome{Kind: kind, OperationName: name, Subscription: sub}, nil
	}

	o.mu.Lock()
	gen, callCtx := o.sendSlot.begin(ctx)
	o.mu.Unlock()

	result, err := o.transport.Execute(callCtx, spec)

	o.mu.Lock()
	current := o.sendSlot.finish(gen)
	o.mu.Unlock()
	if !current {
		o.logger.Debug("discarding superseded result", "generation", gen)
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	return &Outcome{Kind: kind, OperationName: name, Result: result}, nil
}

// subscribe starts a subscription over the shared channel, dialing a
// fresh one when none is open or the endpoint changed.
func (o *Orchestrator) subscribe(ctx context.Context, spec *graphql.RequestSpec) (*subscription.Subscription, error) {
	ch, err := o.channelFor(ctx, spec)
	if err != nil {
		return nil, err
	}
	return ch.Subscribe(ctx, spec.Query, spec.Variables)
}

func (o *Orchestrator) channelFor(ctx context.Context, spec *graphql.RequestSpec) (Channel, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.channel != nil && o.channelEndpoint == spec.Endpoint {
		return o.channel, nil
	}
	if o.channel != nil {
		o.logger.Debug("endpoint changed, closing subscription channel", "endpoint", o.channelEndpoint)
		_ = o.channel.Close()
		o.channel = nil
	}

	ch, err := o.dialer(ctx, spec.Endpoint, spec.Headers, &subscription.Options{
		InsecureSkipTLS: !spec.VerifyTLS,
		Logger:          o.logger,
	})
	if err != nil {
		return nil, err
	}
	o.channel = ch
	o.channelEndpoint = spec.Endpoint
	return ch, nil
}

// CancelSubscription stops a running subscription. It is idempotent
// and a no-op when no channel is open.
func (o *Orchestrator) CancelSubscription(ctx context.Context, id string) error {
	o.mu.Lock()
	ch := o.channel
	o.mu.Unlock()
	if ch == nil {
		return nil
	}
	return ch.Cancel(ctx, id)
}

// LoadSchema issues the standard introspection query against endpoint
// and replaces the cached catalog on success. On any failure the
// previously loaded catalog is left untouched, so a transient outage
// never blanks an already usable schema view. Like Send, a newer
// LoadSchema supersedes a pending one.
func (o *Orchestrator) LoadSchema(ctx context.Context, endpoint string, headers []graphql.Header, verifyTLS bool) (*introspection.Catalog, error) {
	spec := &graphql.RequestSpec{
		Endpoint:  endpoint,
		Headers:   headers,
		Query:     introspection.Query,
		VerifyTLS: verifyTLS,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	gen, callCtx := o.schemaSlot.begin(ctx)
	o.mu.Unlock()

	result, err := o.transport.Execute(callCtx, spec)

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.schemaSlot.finish(gen) {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	if result.TransportErr != nil {
		return nil, result.TransportErr
	}

	catalog, err := introspection.Build([]byte(result.BodyRaw))
	if err != nil {
		o.logger.Warn("schema load failed, keeping previous catalog", "error", err)
		return nil, err
	}
	o.catalog = catalog
	o.logger.Info("schema loaded", "types", catalog.Len())
	return catalog, nil
}

// Catalog returns the most recently loaded schema catalog, or nil when
// none has been loaded yet.
func (o *Orchestrator) Catalog() *introspection.Catalog {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.catalog
}

// CancelCurrent cancels any pending Send and schema load. It is a
// no-op when nothing is in flight.
func (o *Orchestrator) CancelCurrent() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sendSlot.cancel != nil {
		o.sendSlot.cancel()
	}
	if o.schemaSlot.cancel != nil {
		o.schemaSlot.cancel()
	}
}

// Close cancels pending work and tears down the subscription channel.
func (o *Orchestrator) Close() error {
	o.CancelCurrent()

	o.mu.Lock()
	ch := o.channel
	o.channel = nil
	o.channelEndpoint = ""
	o.mu.Unlock()

	if ch == nil {
		return nil
	}
	return ch.Close()
}
