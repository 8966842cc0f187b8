// Package logging assembles the slog loggers used by m4dsync.
//
// Console output is a single line per record with the component and the
// site/player subject pulled to the front. When a log file is configured the
// same records are mirrored to it as JSON so runs can be inspected after the
// fact. Context helpers stamp run, driver, site, and player identifiers onto
// log lines without threading them through every call.
package logging
