// Package reconcile sequences the site sheet, dictionaries, player
// selection, and streaming rules against the Media4Display directory.
//
// Four drivers share one Env:
//   - Updater brings every player of one site in line with the sheet.
//   - Batch runs the Updater over the backlog and rewrites it with the
//     sites that remain unresolved.
//   - Auditor flags sites whose players miss mandatory attributes.
//   - Validator checks the whole fleet's city, reseller, and sector codes
//     and corrects the invalid ones.
//
// Drivers are sequential. Failures scoped to a site or a player are recorded
// as outcomes and never abort the run; cancellation stops the loop between
// entities.
package reconcile
