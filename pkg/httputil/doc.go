// Package httputil provides the JSON and middleware helpers shared by the
// HTTP handlers.
//
// # Responses
//
//	httputil.WriteJSON(w, http.StatusOK, result)
//	httputil.WriteError(w, http.StatusBadRequest, err)
//
// Errors are always rendered as {"error": "..."} with optional details.
//
// # Middleware
//
// RequestID, Logging and Recovery are mux-compatible middleware. Logging
// and Recovery log through logrus and tag entries with the request id.
package httputil
