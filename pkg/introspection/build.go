package introspection

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gqlnav/gqlnav/pkg/graphql"
)

// Raw introspection payload shapes. The envelope may be a full GraphQL
// response body or the bare {"__schema": ...} object.
type rawResponse struct {
	Data   *rawData                `json:"data"`
	Errors []graphql.ResponseError `json:"errors"`
	Schema *rawSchema              `json:"__schema"`
}

type rawData struct {
	Schema *rawSchema `json:"__schema"`
}

type rawSchema struct {
	QueryType        *rawNamed `json:"queryType"`
	MutationType     *rawNamed `json:"mutationType"`
	SubscriptionType *rawNamed `json:"subscriptionType"`
	Types            []rawType `json:"types"`
}

type rawNamed struct {
	Name string `json:"name"`
}

type rawType struct {
	Kind          string          `json:"kind"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Fields        []rawField      `json:"fields"`
	InputFields   []rawInputValue `json:"inputFields"`
	EnumValues    []rawEnumValue  `json:"enumValues"`
	PossibleTypes []rawTypeRef    `json:"possibleTypes"`
	Interfaces    []rawTypeRef    `json:"interfaces"`
}

type rawField struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Args        []rawInputValue `json:"args"`
	Type        *rawTypeRef     `json:"type"`
}

type rawInputValue struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Type        *rawTypeRef `json:"type"`
}

type rawEnumValue struct {
	Name string `json:"name"`
}

type rawTypeRef struct {
	Kind   string      `json:"kind"`
	Name   string      `json:"name"`
	OfType *rawTypeRef `json:"ofType"`
}

func malformed(message string, err error) *graphql.Error {
	return graphql.NewError(graphql.KindSchemaMalformed, message, err)
}

// Build turns a raw introspection result into a catalog. A payload with
// an invalid shape, a reference to an absent type name, or a wrapper
// chain that never reaches a named type yields a SchemaMalformed error
// and no catalog: a partial schema is worse than none for browsing.
func Build(raw []byte) (*Catalog, error) {
	var resp rawResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, malformed("introspection payload is not valid JSON", err)
	}
	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return nil, malformed("introspection returned errors: "+strings.Join(messages, "; "), nil)
	}

	schema := resp.Schema
	if resp.Data != nil && resp.Data.Schema != nil {
		schema = resp.Data.Schema
	}
	if schema == nil {
		return nil, malformed("missing __schema object", nil)
	}
	if len(schema.Types) == 0 {
		return nil, malformed("__schema.types is missing or empty", nil)
	}

	// First pass: index every named type.
	types := make(map[string]*TypeNode, len(schema.Types))
	for _, rt := range schema.Types {
		if rt.Name == "" {
			return nil, malformed("type descriptor without a name", nil)
		}
		if _, dup := types[rt.Name]; dup {
			return nil, malformed(fmt.Sprintf("duplicate type name %q", rt.Name), nil)
		}
		types[rt.Name] = convertType(rt)
	}

	c := &Catalog{types: types}

	// Second pass: every reference must resolve to a present key.
	if err := c.resolveReferences(); err != nil {
		return nil, err
	}

	if schema.QueryType != nil {
		c.roots.Query = schema.QueryType.Name
	}
	if schema.MutationType != nil {
		c.roots.Mutation = schema.MutationType.Name
	}
	if schema.SubscriptionType != nil {
		c.roots.Subscription = schema.SubscriptionType.Name
	}
	for _, root := range []string{c.roots.Query, c.roots.Mutation, c.roots.Subscription} {
		if root != "" && c.types[root] == nil {
			return nil, malformed(fmt.Sprintf("root type %q is not defined", root), nil)
		}
	}

	return c, nil
}

func convertType(rt rawType) *TypeNode {
	node := &TypeNode{
		Kind:        Kind(rt.Kind),
		Name:        rt.Name,
		Description: rt.Description,
	}
	for _, f := range rt.Fields {
		field := FieldNode{
			Name:        f.Name,
			Description: f.Description,
			Type:        convertTypeRef(f.Type),
		}
		for _, a := range f.Args {
			field.Args = append(field.Args, ArgNode{
				Name:        a.Name,
				Description: a.Description,
				Type:        convertTypeRef(a.Type),
			})
		}
		node.Fields = append(node.Fields, field)
	}
	for _, f := range rt.InputFields {
		node.InputFields = append(node.InputFields, ArgNode{
			Name:        f.Name,
			Description: f.Description,
			Type:        convertTypeRef(f.Type),
		})
	}
	for _, v := range rt.EnumValues {
		node.EnumValues = append(node.EnumValues, v.Name)
	}
	for _, p := range rt.PossibleTypes {
		node.PossibleTypes = append(node.PossibleTypes, p.Name)
	}
	for _, i := range rt.Interfaces {
		node.Interfaces = append(node.Interfaces, i.Name)
	}
	return node
}

func convertTypeRef(rt *rawTypeRef) *TypeRef {
	if rt == nil {
		return nil
	}
	return &TypeRef{
		Kind:   Kind(rt.Kind),
		Name:   rt.Name,
		OfType: convertTypeRef(rt.OfType),
	}
}

// resolveReferences checks that every field, argument, possible-type,
// and interface reference names a present catalog entry.
func (c *Catalog) resolveReferences() error {
	for name, node := range c.types {
		for _, f := range node.Fields {
			if err := c.checkRef(name, f.Name, f.Type); err != nil {
				return err
			}
			for _, a := range f.Args {
				if err := c.checkRef(name, f.Name+"("+a.Name+")", a.Type); err != nil {
					return err
				}
			}
		}
		for _, f := range node.InputFields {
			if err := c.checkRef(name, f.Name, f.Type); err != nil {
				return err
			}
		}
		for _, p := range node.PossibleTypes {
			if c.types[p] == nil {
				return malformed(fmt.Sprintf("type %q lists absent possible type %q", name, p), nil)
			}
		}
		for _, i := range node.Interfaces {
			if c.types[i] == nil {
				return malformed(fmt.Sprintf("type %q implements absent interface %q", name, i), nil)
			}
		}
	}
	return nil
}

func (c *Catalog) checkRef(typeName, fieldName string, ref *TypeRef) error {
	if ref == nil {
		return malformed(fmt.Sprintf("%s.%s has no type", typeName, fieldName), nil)
	}
	for r := ref; r != nil; r = r.OfType {
		if r.Name != "" {
			if c.types[r.Name] == nil {
				return malformed(fmt.Sprintf("%s.%s references absent type %q", typeName, fieldName, r.Name), nil)
			}
			return nil
		}
		if r.Kind != KindList && r.Kind != KindNonNull {
			return malformed(fmt.Sprintf("%s.%s has unnamed non-wrapper type", typeName, fieldName), nil)
		}
	}
	return malformed(fmt.Sprintf("%s.%s wrapper chain never reaches a named type", typeName, fieldName), nil)
}
