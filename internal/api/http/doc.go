// Package http exposes the engine's operations over a REST API.
//
// Every mutating endpoint delegates to the engine and returns the
// affected entity or a success flag. Engine sentinel errors map onto
// status codes: unknown entities are 404, rejected operations (switch
// in progress, favorites cap, no current workspace) are 409.
package http
