// Package anki writes card records in formats Anki imports: a ;-separated
// text file and an .apkg package.
package anki
