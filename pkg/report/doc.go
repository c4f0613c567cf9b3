// Package report writes the things a run leaves behind apart from
// sequences. That is the metadata file with counts per species, a
// summary table for the terminal and a coverage plot per species.
package report
