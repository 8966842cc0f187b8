// Package audit reads and writes the operator-facing CSV files: the backlog
// of unresolved sites (also produced by the missing-attributes audit) and
// the timestamped validation report.
package audit
