// Package variables holds the install variable store and recomputes dynamic
// variables.
//
// A Variables value is an explicit context object: the installer, the
// automation replay and the unpacker all receive it rather than reaching for
// shared state. It satisfies rules.Context so conditions can read from it
// directly.
//
// Dynamic variables are declared with a value source (a template, an
// environment variable, or a key in a config file), optional filters, an
// optional condition and an optional checkonce flag. Several declarations may
// share a name; on refresh the first declaration whose condition holds sets
// the value, and when none holds the current value is left alone.
//
// Refresh orders variables so that the ones a declaration references are
// computed first. A reference cycle, including a variable that references
// itself, is reported as a CYCLIC_DEPENDENCY error.
package variables
