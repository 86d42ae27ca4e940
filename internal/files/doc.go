// Package files discovers census input files in the data directory.
//
// Discovery finds dwelling-status workbooks, converted flat files and
// boundary datasets by naming convention and picks the newest snapshot
// of each, so a data directory can hold several census vintages side
// by side.
package files
