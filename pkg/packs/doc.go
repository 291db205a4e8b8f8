// Package packs models installable packs and their metadata resource.
//
// A pack is a named, independently selectable group of files. Each PackFile
// records where its bytes live in the installer archive: an offset and
// stored size inside the pack's stream, a dedicated pack200 stream id, or a
// back-reference to identical content already written for another file in
// the same archive stream.
//
// This package handles:
//
//   - Pack validation (unique names, known and acyclic dependencies)
//   - Resolution of the install set from required, requested and dependent packs
//   - Reading and writing the packs.xml metadata resource
package packs
