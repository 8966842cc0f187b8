// Package textutil holds small string helpers shared by the sheet reader,
// the dictionaries and the report writers: label normalization that folds
// non-breaking spaces and surrounding whitespace, and display placeholders
// for empty values.
package textutil
