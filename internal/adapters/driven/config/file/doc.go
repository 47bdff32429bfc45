// Package file provides the file-based ConfigStore adapter.
// It persists seqpack's stored defaults to a TOML file in the user's
// config directory.
package file
