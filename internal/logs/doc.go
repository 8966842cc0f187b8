// Package logs reads the m4dsync log file for the logs command: the last N
// lines, lines appended since an offset, and a polling follow loop that
// survives truncation.
package logs
