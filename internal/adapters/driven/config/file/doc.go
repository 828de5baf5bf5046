// Package file provides the TOML-backed configuration store.
//
// Keys are addressed with dot notation ("sync.output_dir"); nested TOML
// tables are flattened on load and re-nested on save.
package file
