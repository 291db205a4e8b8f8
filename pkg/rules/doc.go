// Package rules evaluates named boolean conditions over install variables.
//
// Conditions are registered on an Engine under an id and evaluated on demand
// against an explicit Context that supplies variable values. Nothing is
// cached between evaluations, so a condition always reflects the variable
// state passed in.
//
// # Condition Types
//
//   - variable: a variable equals a literal value
//   - compare: two expanded arguments compared with eq, ne, lt, le, gt, ge
//   - contains: a variable contains a substring or matches a regexp
//   - empty: a variable is unset or empty
//   - exists: a variable is set, or a file exists
//   - packselection: a pack is selected for installation
//   - ref: another condition by id
//   - and, or, xor, not: composites over inline children or refs
//
// # Expressions
//
// Anywhere a condition id is accepted an expression over ids may be used
// instead:
//
//	!windows            not
//	linux+x64           and
//	linux|mac           or
//	server\client       xor (exactly one)
//	(linux|mac)+!arm    grouping
//
// Precedence from tightest to loosest is not, and, xor, or.
package rules
