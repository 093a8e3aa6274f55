package graphql

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

// OperationKind identifies how an operation is transported: queries and
// mutations go over HTTP, subscriptions over a message channel.
type OperationKind string

// Operation kinds.
const (
	OpQuery        OperationKind = "query"
	OpMutation     OperationKind = "mutation"
	OpSubscription OperationKind = "subscription"
)

// Classify determines the kind and name of the first operation in the
// given text. Well-formed documents are classified from the parsed
// operation; anything the parser rejects falls back to a leading
// keyword scan so that malformed text still reaches the transport,
// which surfaces the server-side error.
func Classify(query string) (OperationKind, string) {
	doc, err := parser.ParseQuery(&ast.Source{Name: "operation", Input: query})
	if err == nil && len(doc.Operations) > 0 {
		op := doc.Operations[0]
		switch op.Operation {
		case ast.Subscription:
			return OpSubscription, op.Name
		case ast.Mutation:
			return OpMutation, op.Name
		default:
			return OpQuery, op.Name
		}
	}
	return classifyKeyword(query), ""
}

// classifyKeyword inspects the first non-comment token of the text.
func classifyKeyword(query string) OperationKind {
	for _, line := range strings.Split(query, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word := line
		if i := strings.IndexAny(line, " \t({@"); i >= 0 {
			word = line[:i]
		}
		switch word {
		case "subscription":
			return OpSubscription
		case "mutation":
			return OpMutation
		default:
			return OpQuery
		}
	}
	return OpQuery
}
