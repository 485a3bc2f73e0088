// Package shutdown provides graceful shutdown for petrelmq-server.
//
// This package handles process termination:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Cleanup hook registration, executed in reverse order
//   - Timeout-based bound on the whole hook sequence
//
// The payload engine's own retrying close runs inside one of these
// hooks; the handler's timeout must budget for the engine's full close
// retry window.
package shutdown
