package introspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gqlnav/gqlnav/pkg/graphql"
)

// testPayload is a small but realistic introspection response: it has a
// self-referential type (Node.next: Node), a mutual reference cycle
// (User.posts -> Post, Post.author -> User), wrapper chains, an enum, a
// union, an input object, and a built-in "__"-prefixed type.
const testPayload = `{
  "data": {
    "__schema": {
      "queryType": {"name": "Query"},
      "mutationType": {"name": "Mutation"},
      "subscriptionType": null,
      "types": [
        {
          "kind": "OBJECT",
          "name": "Query",
          "description": "Entry point.",
          "fields": [
            {
              "name": "user",
              "description": "Look up a user.",
              "args": [
                {"name": "id", "description": null, "type": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "SCALAR", "name": "ID", "ofType": null}}}
              ],
              "type": {"kind": "OBJECT", "name": "User", "ofType": null}
            },
            {
              "name": "users",
              "description": null,
              "args": [],
              "type": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "LIST", "name": null, "ofType": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "OBJECT", "name": "User", "ofType": null}}}}
            },
            {
              "name": "node",
              "description": null,
              "args": [],
              "type": {"kind": "OBJECT", "name": "Node", "ofType": null}
            },
            {
              "name": "search",
              "description": null,
              "args": [],
              "type": {"kind": "UNION", "name": "SearchResult", "ofType": null}
            }
          ]
        },
        {
          "kind": "OBJECT",
          "name": "Mutation",
          "fields": [
            {
              "name": "createUser",
              "args": [
                {"name": "input", "type": {"kind": "INPUT_OBJECT", "name": "CreateUserInput", "ofType": null}}
              ],
              "type": {"kind": "OBJECT", "name": "User", "ofType": null}
            }
          ]
        },
        {
          "kind": "OBJECT",
          "name": "Node",
          "description": "A self-referential linked node.",
          "fields": [
            {"name": "next", "args": [], "type": {"kind": "OBJECT", "name": "Node", "ofType": null}}
          ]
        },
        {
          "kind": "OBJECT",
          "name": "User",
          "fields": [
            {"name": "id", "args": [], "type": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "SCALAR", "name": "ID", "ofType": null}}},
            {"name": "role", "args": [], "type": {"kind": "ENUM", "name": "Role", "ofType": null}},
            {"name": "posts", "args": [], "type": {"kind": "LIST", "name": null, "ofType": {"kind": "OBJECT", "name": "Post", "ofType": null}}}
          ]
        },
        {
          "kind": "OBJECT",
          "name": "Post",
          "fields": [
            {"name": "title", "args": [], "type": {"kind": "SCALAR", "name": "String", "ofType": null}},
            {"name": "author", "args": [], "type": {"kind": "OBJECT", "name": "User", "ofType": null}}
          ]
        },
        {
          "kind": "INPUT_OBJECT",
          "name": "CreateUserInput",
          "inputFields": [
            {"name": "name", "type": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "SCALAR", "name": "String", "ofType": null}}},
            {"name": "role", "type": {"kind": "ENUM", "name": "Role", "ofType": null}}
          ]
        },
        {"kind": "ENUM", "name": "Role", "enumValues": [{"name": "ADMIN"}, {"name": "USER"}]},
        {"kind": "UNION", "name": "SearchResult", "possibleTypes": [{"name": "User"}, {"name": "Post"}]},
        {"kind": "SCALAR", "name": "ID"},
        {"kind": "SCALAR", "name": "String"},
        {"kind": "OBJECT", "name": "__Schema", "fields": [{"name": "description", "args": [], "type": {"kind": "SCALAR", "name": "String", "ofType": null}}]}
      ]
    }
  }
}`

func buildTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := Build([]byte(testPayload))
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func TestBuild_SelfReferenceIsSafe(t *testing.T) {
	c := buildTestCatalog(t)

	node := c.Describe("Node")
	require.NotNil(t, node)
	require.Len(t, node.Fields, 1)
	assert.Equal(t, "Node", node.Fields[0].Type.NamedType())

	// Expansion resolves children by lookup, so a cyclic type can be
	// expanded indefinitely one level at a time.
	current := "Node"
	for i := 0; i < 100; i++ {
		entries := c.Expand(current)
		require.Len(t, entries, 1)
		assert.Equal(t, "next: Node", entries[0].Label)
		current = entries[0].TypeName
	}
}

func TestBuild_MutualReferences(t *testing.T) {
	c := buildTestCatalog(t)

	user := c.Describe("User")
	require.NotNil(t, user)
	post := c.Describe("Post")
	require.NotNil(t, post)

	assert.Equal(t, "Post", user.Fields[2].Type.NamedType())
	assert.Equal(t, "User", post.Fields[1].Type.NamedType())
}

func TestBuild_RootTypes(t *testing.T) {
	c := buildTestCatalog(t)

	roots := c.RootTypes()
	assert.Equal(t, "Query", roots.Query)
	assert.Equal(t, "Mutation", roots.Mutation)
	assert.Empty(t, roots.Subscription)
}

func TestBuild_TypeNamesHideBuiltins(t *testing.T) {
	c := buildTestCatalog(t)

	names := c.TypeNames()
	assert.NotContains(t, names, "__Schema")
	assert.Contains(t, names, "User")
	assert.IsIncreasing(t, names)

	// Built-ins stay resolvable.
	require.NotNil(t, c.Describe("__Schema"))
}

func TestBuild_MissingReferencedType(t *testing.T) {
	payload := `{"data": {"__schema": {"queryType": {"name": "Query"}, "types": [
		{"kind": "OBJECT", "name": "Query", "fields": [
			{"name": "ghost", "args": [], "type": {"kind": "OBJECT", "name": "Ghost", "ofType": null}}
		]}
	]}}}`

	c, err := Build([]byte(payload))
	assert.Nil(t, c, "no partial catalog on failure")
	require.Error(t, err)

	var gerr *graphql.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, graphql.KindSchemaMalformed, gerr.Kind)
	assert.Contains(t, gerr.Message, "Ghost")
}

func TestBuild_WrapperChainWithoutTerminal(t *testing.T) {
	payload := `{"data": {"__schema": {"queryType": {"name": "Query"}, "types": [
		{"kind": "OBJECT", "name": "Query", "fields": [
			{"name": "bad", "args": [], "type": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "LIST", "name": null, "ofType": null}}}
		]}
	]}}}`

	c, err := Build([]byte(payload))
	assert.Nil(t, c)
	require.Error(t, err)

	var gerr *graphql.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, graphql.KindSchemaMalformed, gerr.Kind)
}

func TestBuild_MalformedShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `schema dump`},
		{name: "no schema object", payload: `{"data": {}}`},
		{name: "types missing", payload: `{"data": {"__schema": {"queryType": {"name": "Query"}}}}`},
		{name: "types empty", payload: `{"data": {"__schema": {"types": []}}}`},
		{name: "types not an array", payload: `{"data": {"__schema": {"types": "oops"}}}`},
		{name: "graphql errors", payload: `{"errors": [{"message": "introspection is disabled"}]}`},
		{name: "unnamed type", payload: `{"data": {"__schema": {"types": [{"kind": "OBJECT"}]}}}`},
		{name: "undefined root", payload: `{"data": {"__schema": {"queryType": {"name": "Query"}, "types": [{"kind": "SCALAR", "name": "String"}]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Build([]byte(tt.payload))
			assert.Nil(t, c)
			require.Error(t, err)

			var gerr *graphql.Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, graphql.KindSchemaMalformed, gerr.Kind)
		})
	}
}

func TestBuild_BareSchemaEnvelope(t *testing.T) {
	payload := `{"__schema": {"queryType": {"name": "Query"}, "types": [
		{"kind": "OBJECT", "name": "Query", "fields": [
			{"name": "ok", "args": [], "type": {"kind": "SCALAR", "name": "Boolean", "ofType": null}}
		]},
		{"kind": "SCALAR", "name": "Boolean"}
	]}}`

	c, err := Build([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "Query", c.RootTypes().Query)
}

func TestExpand(t *testing.T) {
	c := buildTestCatalog(t)

	t.Run("object fields with args and wrappers", func(t *testing.T) {
		entries := c.Expand("Query")
		require.Len(t, entries, 4)

		assert.Equal(t, "user: User", entries[0].Label)
		assert.Equal(t, "id: ID!", entries[0].Args)
		assert.Equal(t, "User", entries[0].TypeName)

		assert.Equal(t, "users: [User!]!", entries[1].Label)
		assert.Equal(t, "User", entries[1].TypeName)
	})

	t.Run("enum values are leaves", func(t *testing.T) {
		entries := c.Expand("Role")
		require.Len(t, entries, 2)
		assert.Equal(t, "ADMIN", entries[0].Label)
		assert.Empty(t, entries[0].TypeName)
	})

	t.Run("union members", func(t *testing.T) {
		entries := c.Expand("SearchResult")
		require.Len(t, entries, 2)
		assert.Equal(t, "User (object)", entries[0].Label)
		assert.Equal(t, "User", entries[0].TypeName)
	})

	t.Run("input object fields", func(t *testing.T) {
		entries := c.Expand("CreateUserInput")
		require.Len(t, entries, 2)
		assert.Equal(t, "name: String!", entries[0].Label)
	})

	t.Run("scalars and unknown types expand to nothing", func(t *testing.T) {
		assert.Empty(t, c.Expand("String"))
		assert.Empty(t, c.Expand("NoSuchType"))
	})
}

func TestTypeRefString(t *testing.T) {
	ref := &TypeRef{Kind: KindNonNull, OfType: &TypeRef{Kind: KindList, OfType: &TypeRef{Kind: KindNonNull, OfType: &TypeRef{Kind: KindScalar, Name: "Int"}}}}
	assert.Equal(t, "[Int!]!", ref.String())

	var nilRef *TypeRef
	assert.Equal(t, "Unknown", nilRef.String())
	assert.Empty(t, nilRef.NamedType())
}
