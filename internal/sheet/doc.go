// Package sheet connects the card model to a spreadsheet host. Grid is the
// range-addressed host API, XLSX implements it with excelize, and Store
// synchronizes a card collection with the first table of the active sheet.
package sheet
