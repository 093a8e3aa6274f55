package introspection

// Query is the introspection operation sent to a server to discover its
// schema. Type references nest deep enough to unwrap practical
// NON_NULL/LIST wrapper chains; a chain that still has no terminal
// named type after that is rejected by Build.
const Query = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      kind
      name
      description
      fields(includeDeprecated: true) {
        name
        description
        args {
          name
          description
          type { ...TypeRef }
        }
        type { ...TypeRef }
      }
      inputFields {
        name
        description
        type { ...TypeRef }
      }
      enumValues(includeDeprecated: true) {
        name
        description
      }
      possibleTypes { name }
      interfaces { name }
    }
  }
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
              }
            }
          }
        }
      }
    }
  }
}`
