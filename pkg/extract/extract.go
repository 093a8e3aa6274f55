// Package extract pulls values out of GraphQL response bodies with
// JSONPath expressions, e.g. "$.data.user.name".
package extract

import (
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/gqlnav/gqlnav/pkg/graphql"
)

// Result evaluates path against the parsed body of a request result.
// A result without a parseable JSON body yields no values and no
// error; an invalid path expression is an error.
func Result(result *graphql.RequestResult, path string) ([]any, error) {
	if result == nil || result.BodyParsed == nil {
		return nil, nil
	}
	return Value(result.BodyParsed, path)
}

// Bytes parses raw JSON and evaluates path against it.
func Bytes(data []byte, path string) ([]any, error) {
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return Value(doc, path)
}

// Value evaluates path against an already decoded document. It returns
// every matching value in document order; no matches is an empty
// result, not an error.
func Value(doc any, path string) ([]any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	return expr.Get(doc), nil
}

// Pretty renders a decoded document as indented JSON with stable key
// order.
func Pretty(doc any) string {
	return oj.JSON(doc, &oj.Options{Indent: 2, Sort: true})
}
