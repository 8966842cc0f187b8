// Package preflight provides readiness checks for the files, directories,
// and the Media4Display API that m4dsync depends on.
//
// These checks run in two contexts:
//   - Every driver command calls RunAll before any network activity. A
//     missing mandatory input aborts the run.
//   - "m4dsync config validate" prints each result and, when credentials are
//     available, adds CheckDirectory to confirm the API accepts them.
package preflight
