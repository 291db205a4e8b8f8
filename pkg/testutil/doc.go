// Package testutil provides helpers shared by packsmith tests.
//
// Tests build their source trees inline with WriteFiles, usually on an
// afero.MemMapFs, and read results back with ReadFile.
package testutil
