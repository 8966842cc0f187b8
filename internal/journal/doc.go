// Package journal persists per-site and per-player reconciliation outcomes
// in SQLite so operators can review what previous runs changed.
package journal
