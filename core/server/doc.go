// Package server holds the HTTP server configuration.
//
// The Config struct defines the HTTP port, the API key guarding the exchange routes
// and the graceful shutdown bound. The start command reads it to build the Fiber app.
package server
