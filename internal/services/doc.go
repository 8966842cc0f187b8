// Package services defines shared utilities consumed by the reconciliation
// drivers and the Media4Display integration.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, driver names, site IDs, and player
//     IDs for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into operator-facing notes (lookup problem vs directory failure).
//
// Use these helpers when wiring new driver logic so operational behaviour
// (error handling, observability) stays uniform across commands.
package services
