// Package cli provides the cardsheet commands. Each command opens the
// workbook given as its argument, runs one action against the card table
// of the active sheet and saves the workbook.
package cli
