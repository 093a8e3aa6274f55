package graphql

// Request is the JSON body posted to a GraphQL endpoint.
type Request struct {
	// Query is the GraphQL operation text.
	Query string `json:"query"`
	// OperationName selects the operation in multi-operation documents.
	OperationName string `json:"operationName,omitempty"`
	// Variables are the variable values for the operation.
	Variables any `json:"variables"`
}

// Response is a GraphQL execution result as returned by a server.
type Response struct {
	// Data contains the result of the operation.
	Data any `json:"data,omitempty"`
	// Errors contains any errors that occurred during execution.
	Errors []ResponseError `json:"errors,omitempty"`
	// Extensions contains additional response metadata.
	Extensions map[string]any `json:"extensions,omitempty"`
}

// ResponseError is a single error entry in a GraphQL response.
type ResponseError struct {
	// Message is the error message.
	Message string `json:"message"`
	// Locations indicates where in the operation the error occurred.
	Locations []ErrorLocation `json:"locations,omitempty"`
	// Path is the response field path where the error occurred.
	Path []any `json:"path,omitempty"`
	// Extensions contains additional error metadata.
	Extensions map[string]any `json:"extensions,omitempty"`
}

// ErrorLocation is a position in the operation text, 1-indexed.
type ErrorLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}
