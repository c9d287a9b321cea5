// Package server runs the document server: it owns the HTTP listener, handles
// stop signals and shuts the listener down gracefully.
package server
