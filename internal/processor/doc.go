// Package processor contains the bulk actions over a deck table: clipboard
// import, image and sound enrichment, translation, pronunciation hints and
// export. Each action reads the whole collection once, changes it in memory
// and writes it back once.
package processor
