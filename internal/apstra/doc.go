// Package apstra provides a small client for the Juniper Apstra REST API.
//
// The client owns everything tool handlers should not care about: base URL
// handling, bearer authentication, TLS settings, timeouts, client-side rate
// limiting and the classification of failures into a fixed set of error
// kinds.
//
// # Error Kinds
//
// Every failed call returns an *Error whose Kind is one of:
//
//	| Condition                               | Kind                    |
//	|-----------------------------------------|-------------------------|
//	| No response (DNS, TCP, TLS, timeout)    | ConnectionError         |
//	| HTTP 401, 403                           | AuthenticationError     |
//	| HTTP 404                                | NotFoundError           |
//	| HTTP 400, 422                           | ValidationError         |
//	| HTTP 5xx                                | ServerError             |
//	| 2xx with empty or non-JSON body         | UnexpectedResponseError |
//	| Any other status                        | UnexpectedResponseError |
//
// The message is taken from the JSON error body (errors, error, message,
// detail or description, first match wins) and falls back to the HTTP
// status text.
//
// # Paths
//
// Identifiers are never concatenated into URLs directly. Use Path,
// BlueprintPath or SystemPath with one of the Path* templates:
//
//	path, err := apstra.BlueprintPath(apstra.PathBlueprintAnomalies, blueprintID)
//	if err != nil {
//		return err // ValidationError
//	}
//	resp, err := client.Request(ctx, http.MethodGet, path, nil, nil)
package apstra
