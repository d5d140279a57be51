// Package card defines the flashcard record stored in one table row and the
// fixed column order used to map records to and from the deck table.
package card
