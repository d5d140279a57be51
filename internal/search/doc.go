// Package search turns card text into media URLs. Image lookups go to the
// provider identified by the configured endpoint's hostname (Pixabay or
// Google Custom Search); sound URLs are built from a template without any
// network call.
package search
