// Package main hosts the m4dsync CLI entrypoint and command graph.
//
// The Cobra-based command tree maps operator invocations onto the
// reconciliation drivers: single-site update, backlog batch, missing
// attribute audit, fleet validation, raw player fetch, journal history, and
// configuration scaffolding. It centralizes configuration resolution,
// credential prompting, preflight checks, and structured logging setup so
// subcommands only sequence a driver and render its summary.
//
// Keep this package lean: add behaviour to the internal packages first, then
// surface it through dedicated commands or flags here.
package main
