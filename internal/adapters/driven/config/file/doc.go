// Package file provides file-based configuration and prompt storage.
//
// Settings live in a TOML file merged over built-in defaults; prompt
// templates live in per-language text files the user can edit. API keys
// are never written to disk, they are read from the environment.
package file
