// Package server exposes the shell managers over HTTP.
//
// This is deliberately thin glue: handlers decode a request, dispatch
// exactly one manager operation, and encode the result or its error
// string. All policy lives in the managers.
package server
