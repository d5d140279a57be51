// Package config loads the cardsheet configuration from defaults, an
// optional YAML file, CARDSHEET_* environment variables and command line
// flags, and reads the URL templates from the workbook's option cells.
package config
