// Package installer runs an installation from a compiled archive.
//
// A Session loads the descriptor embedded in the archive, registers its
// conditions and dynamic variables, and tracks which packs are selected.
// Install refreshes the variables, resolves the pack set and extracts the
// files onto a target filesystem.
package installer
