// Package graphql defines the shared request/response model for the
// gqlnav client core.
//
// The package holds the wire types exchanged with a GraphQL server
// (Request, Response, ResponseError), the caller-facing RequestSpec and
// RequestResult, the error taxonomy used across the core, and operation
// classification.
//
// Errors that occur while talking to a server are carried as data: a
// transport failure lands in RequestResult.TransportErr and a
// subscription failure arrives as an error event. The only condition
// reported as a plain Go error before any I/O is a structurally invalid
// RequestSpec.
//
// Basic usage:
//
//	spec := &graphql.RequestSpec{
//	    Endpoint:  "https://api.example.com/graphql",
//	    Query:     `query { viewer { login } }`,
//	    VerifyTLS: true,
//	}
//	if err := spec.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package graphql
