// Package introspection turns a raw GraphQL introspection result into a
// navigable, cycle-safe schema catalog.
//
// The introspection graph is self-referential: a type's field can
// reference the type itself, and types routinely reference each other.
// The catalog therefore stores a flat name-indexed table and keeps all
// type references by name rather than by owned pointer. Tree expansion
// for display re-resolves children by lookup at expansion time, so even
// deeply cyclic schemas expand lazily without unbounded recursion.
package introspection

import (
	"sort"
	"strings"
)

// Kind is a GraphQL type kind as reported by introspection.
type Kind string

// Type kinds.
const (
	KindScalar      Kind = "SCALAR"
	KindObject      Kind = "OBJECT"
	KindInterface   Kind = "INTERFACE"
	KindUnion       Kind = "UNION"
	KindEnum        Kind = "ENUM"
	KindInputObject Kind = "INPUT_OBJECT"
	KindList        Kind = "LIST"
	KindNonNull     Kind = "NON_NULL"
)

// TypeRef is a possibly wrapped reference to a named type. Wrapper
// kinds (LIST, NON_NULL) chain through OfType and must terminate at a
// named type; Build enforces that the terminal name resolves in the
// catalog.
type TypeRef struct {
	Kind   Kind
	Name   string
	OfType *TypeRef
}

// String renders the reference in GraphQL notation: NON_NULL as a
// trailing "!", LIST as surrounding brackets.
func (r *TypeRef) String() string {
	if r == nil {
		return "Unknown"
	}
	switch r.Kind {
	case KindNonNull:
		return r.OfType.String() + "!"
	case KindList:
		return "[" + r.OfType.String() + "]"
	default:
		if r.Name != "" {
			return r.Name
		}
		if r.Kind != "" {
			return string(r.Kind)
		}
		return "Unknown"
	}
}

// NamedType walks the wrapper chain to the terminal named type. It
// returns "" when the chain never reaches one.
func (r *TypeRef) NamedType() string {
	for ref := r; ref != nil; ref = ref.OfType {
		if ref.Name != "" {
			return ref.Name
		}
	}
	return ""
}

// TypeNode is one named type in the catalog. Field and argument types
// reference other catalog entries by name only.
type TypeNode struct {
	Kind        Kind
	Name        string
	Description string
	// Fields is populated for OBJECT and INTERFACE types.
	Fields []FieldNode
	// InputFields is populated for INPUT_OBJECT types.
	InputFields []ArgNode
	// EnumValues is populated for ENUM types, in declaration order.
	EnumValues []string
	// PossibleTypes names the concrete members of UNION and INTERFACE
	// types.
	PossibleTypes []string
	// Interfaces names the interfaces an OBJECT type implements.
	Interfaces []string
}

// FieldNode is a single field of an OBJECT or INTERFACE type.
type FieldNode struct {
	Name        string
	Description string
	Args        []ArgNode
	Type        *TypeRef
}

// ArgNode is a field argument or an input-object field.
type ArgNode struct {
	Name        string
	Description string
	Type        *TypeRef
}

// RootTypes names the schema's designated root operation types. Query
// is always present; the others may be empty.
type RootTypes struct {
	Query        string
	Mutation     string
	Subscription string
}

// Catalog is the resolved, name-indexed schema model. Every type
// reference inside it resolves to a present key; Build rejects payloads
// for which that does not hold.
type Catalog struct {
	types map[string]*TypeNode
	roots RootTypes
}

// Describe returns the type with the given name, or nil when the
// catalog has no such type.
func (c *Catalog) Describe(name string) *TypeNode {
	return c.types[name]
}

// RootTypes returns the schema's root operation type names.
func (c *Catalog) RootTypes() RootTypes {
	return c.roots
}

// Len returns the number of types in the catalog, including built-in
// introspection types.
func (c *Catalog) Len() int {
	return len(c.types)
}

// TypeNames returns the displayable type names in sorted order.
// Built-in "__"-prefixed types stay in the catalog so references to
// them resolve, but are hidden from browsing.
func (c *Catalog) TypeNames() []string {
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		if strings.HasPrefix(name, "__") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TreeEntry is one child produced by expanding a type for display.
type TreeEntry struct {
	// Label is the display text, e.g. "posts: [Post!]!" or an enum
	// value.
	Label string
	// Description is the child's documentation, if any.
	Description string
	// TypeName names the catalog entry to expand next; empty for
	// leaves such as enum values.
	TypeName string
	// Args renders the field's arguments, e.g. "id: ID!, limit: Int".
	Args string
}

// Expand resolves one level of children for the named type. Children
// are looked up by name at call time, never eagerly materialized, so
// self-referential and mutually referential types expand safely.
func (c *Catalog) Expand(typeName string) []TreeEntry {
	node := c.types[typeName]
	if node == nil {
		return nil
	}

	var entries []TreeEntry
	switch node.Kind {
	case KindObject, KindInterface:
		for _, f := range node.Fields {
			entries = append(entries, TreeEntry{
				Label:       f.Name + ": " + f.Type.String(),
				Description: f.Description,
				TypeName:    f.Type.NamedType(),
				Args:        formatArgs(f.Args),
			})
		}
		for _, name := range node.PossibleTypes {
			entries = append(entries, possibleTypeEntry(c, name))
		}
	case KindInputObject:
		for _, f := range node.InputFields {
			entries = append(entries, TreeEntry{
				Label:       f.Name + ": " + f.Type.String(),
				Description: f.Description,
				TypeName:    f.Type.NamedType(),
			})
		}
	case KindEnum:
		for _, v := range node.EnumValues {
			entries = append(entries, TreeEntry{Label: v})
		}
	case KindUnion:
		for _, name := range node.PossibleTypes {
			entries = append(entries, possibleTypeEntry(c, name))
		}
	}
	return entries
}

func possibleTypeEntry(c *Catalog, name string) TreeEntry {
	label := name
	if member := c.types[name]; member != nil {
		label = name + " (" + strings.ToLower(string(member.Kind)) + ")"
	}
	return TreeEntry{Label: label, TypeName: name}
}

func formatArgs(args []ArgNode) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.Name+": "+a.Type.String())
	}
	return strings.Join(parts, ", ")
}
