// Package log provides slog loggers that mask credentials.
//
// The renderer talks to a catalog service with an API key and may forward
// customer tokens and cookies. SecureHandler masks such values by key name
// (x-api-key, authorization, cookie, ...) and by value shape (JWT, bearer
// and basic credentials) before they reach the output.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose, jsonOutput)
//	slog.SetDefault(logger)
//
//	logger.Debug("product request", "x-api-key", key) // x-api-key=***REDACTED***
package log
