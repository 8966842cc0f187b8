// Package sitesheet indexes the device data sheet export by site id.
//
// The export arrives in whatever encoding the spreadsheet tool chose, so Load
// walks a preference list of encodings and keeps the first one that decodes
// strictly and yields a header row. The file is read once per run; every
// field lookup afterwards is served from memory.
package sitesheet
